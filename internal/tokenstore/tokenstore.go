// Package tokenstore persists the console session between invocations. The
// access token is sealed with AES-256-GCM; the rest of the file is plain JSON.
package tokenstore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/crypto"
	"github.com/booklify/admin/internal/tokens"
)

const (
	// EnvEncryptionKey overrides the key file with a base64 key.
	EnvEncryptionKey = "BOOKLIFY_TOKEN_KEY"

	keyFileSuffix = ".key"
	fileMode      = 0o600
)

var ErrNoSession = errors.New("no saved session, run `booklify login` first")

// Session is what the console remembers after a successful login.
type Session struct {
	BaseURL  string
	Username string
	Email    string
	Roles    []string
	Token    tokens.Token
}

// HasRole reports whether the session carries role.
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type fileFormat struct {
	BaseURL     string    `json:"base_url"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Roles       []string  `json:"roles"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SavedAt     time.Time `json:"saved_at"`
}

// Config locates the session file and its key.
type Config struct {
	Path string

	// EncryptionKey is a base64 32-byte key. When empty the environment is
	// consulted, then KeyFilePath, which is created if missing.
	EncryptionKey string

	// KeyFilePath defaults to Path + ".key".
	KeyFilePath string
}

// Store reads and writes one session file.
type Store struct {
	path   string
	sealer *crypto.Sealer
}

// New resolves the encryption key and returns a Store for cfg.Path.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("token file path is required")
	}

	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	sealer, err := crypto.NewSealerFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}

	return &Store{path: cfg.Path, sealer: sealer}, nil
}

func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		keyFilePath = cfg.Path + keyFileSuffix
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read key file %s: %w", keyFilePath, err)
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(keyFilePath), 0o700); err != nil {
		return "", fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), fileMode); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	log.Info().Str("path", keyFilePath).Msg("Generated new token encryption key")
	return newKey, nil
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes sess, replacing any previous session atomically.
func (s *Store) Save(sess Session) error {
	sealed, err := s.sealer.Seal([]byte(sess.Token.AccessToken), []byte(sess.Username))
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	data, err := json.MarshalIndent(fileFormat{
		BaseURL:     sess.BaseURL,
		Username:    sess.Username,
		Email:       sess.Email,
		Roles:       sess.Roles,
		AccessToken: base64.StdEncoding.EncodeToString(sealed),
		ExpiresAt:   sess.Token.ExpiresAt,
		SavedAt:     time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict session permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// UpdateToken replaces the token of the saved session, keeping the rest.
func (s *Store) UpdateToken(t tokens.Token) error {
	sess, err := s.Load()
	if err != nil {
		return err
	}
	sess.Token = t
	return s.Save(*sess)
}

// Load reads the saved session. It returns ErrNoSession when there is none.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	sealed, err := base64.StdEncoding.DecodeString(f.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	accessToken, err := s.sealer.Open(sealed, []byte(f.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	return &Session{
		BaseURL:  f.BaseURL,
		Username: f.Username,
		Email:    f.Email,
		Roles:    f.Roles,
		Token: tokens.Token{
			AccessToken: string(accessToken),
			ExpiresAt:   f.ExpiresAt,
		},
	}, nil
}

// Clear removes the saved session. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
