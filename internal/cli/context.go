package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/cmsclient"
	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/logging"
	"github.com/booklify/admin/internal/tokens"
	"github.com/booklify/admin/internal/tokenstore"
)

type commandContext struct {
	baseURLFlag   string
	tokenFileFlag string
	envFileFlag   string
	logLevelFlag  string
	jsonFlag      bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadDotEnv(c.envFileFlag); err != nil {
			c.configErr = fmt.Errorf("load %s: %w", c.envFileFlag, err)
			return
		}
		cfg := config.NewConfig()
		if c.logLevelFlag != "" {
			cfg.Log.Level = c.logLevelFlag
		}
		if v := strings.TrimSpace(c.baseURLFlag); v != "" {
			cfg.Client.BaseURL = v
		}
		if v := strings.TrimSpace(c.tokenFileFlag); v != "" {
			cfg.Client.TokenFile = v
		}
		logging.Setup(cfg.Log)
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) openStore() (*tokenstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return tokenstore.New(tokenstore.Config{Path: cfg.Client.TokenFile})
}

// newClient returns a CMS client for baseURL with a token manager attached.
func (c *commandContext) newClient(baseURL string) (*cmsclient.Client, *tokens.Manager) {
	cfg := c.config
	client := cmsclient.NewClient(baseURL, cmsclient.WithTimeout(cfg.Client.Timeout))
	manager := tokens.NewManager(client,
		tokens.WithMinInterval(cfg.Client.MinRefreshInterval),
		tokens.WithRefreshMargin(cfg.Client.RefreshMargin),
		tokens.WithCheckInterval(cfg.Client.CheckInterval),
	)
	client.UseTokens(manager)
	return client, manager
}

// console is a signed-in CMS session restored from the session file.
type console struct {
	client  *cmsclient.Client
	tokens  *tokens.Manager
	store   *tokenstore.Store
	session *tokenstore.Session
}

// withConsole restores the saved session and runs fn with it. An expired
// session is removed from disk.
func (c *commandContext) withConsole(fn func(*console) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	session, err := store.Load()
	if err != nil {
		return err
	}

	baseURL := session.BaseURL
	if strings.TrimSpace(c.baseURLFlag) != "" || baseURL == "" {
		baseURL = cfg.Client.BaseURL
	}
	client, manager := c.newClient(baseURL)
	manager.Set(session.Token)
	manager.OnRefresh(func(t tokens.Token) {
		if err := store.UpdateToken(t); err != nil {
			log.Warn().Err(err).Msg("Failed to persist refreshed token")
		}
	})

	err = fn(&console{client: client, tokens: manager, store: store, session: session})
	if errors.Is(err, cmsclient.ErrAuthExpired) {
		if clearErr := store.Clear(); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to remove expired session")
		}
		return fmt.Errorf("%w, run `booklify login` again", err)
	}
	return err
}

func (c *commandContext) printJSON(cmd *cobra.Command, v any) (bool, error) {
	if !c.jsonFlag {
		return false, nil
	}
	return true, writeJSON(cmd, v)
}
