// Package cmsclient talks to the Booklify CMS REST API on behalf of the
// console. Every authenticated call takes its bearer token from a
// tokens.Manager. Requests are never retried.
package cmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/tokens"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client is a CMS API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokens.Manager
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:8188/api/cms.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseTokens attaches the token manager used for authenticated calls.
func (c *Client) UseTokens(m *tokens.Manager) {
	c.tokens = m
}

// Login exchanges credentials for an access token. login may be a username
// or an email address. When a token manager is attached it receives the new
// token.
func (c *Client) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	body := loginRequest{Username: login, Password: password}
	if strings.Contains(login, "@") {
		body = loginRequest{Email: login, Password: password}
	}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, "", &result); err != nil {
		return nil, err
	}
	if c.tokens != nil {
		c.tokens.Set(c.tokenFrom(result))
	}
	return &result, nil
}

// Refresh asks the CMS for a new token in exchange for current. It
// implements tokens.Refresher.
func (c *Client) Refresh(ctx context.Context, current string) (tokens.Token, error) {
	var result LoginResult
	if err := c.do(ctx, http.MethodGet, "/auth/refresh", nil, nil, current, &result); err != nil {
		return tokens.Token{}, err
	}
	return c.tokenFrom(result), nil
}

func (c *Client) tokenFrom(r LoginResult) tokens.Token {
	t := tokens.Token{AccessToken: r.AccessToken, ExpiresAt: r.TokenExpiresAt}
	if t.ExpiresAt.IsZero() && r.TokenExpiresIn > 0 {
		t.ExpiresAt = c.now().Add(time.Duration(r.TokenExpiresIn) * time.Second)
	}
	return t
}

// GetBook fetches one book including its raw approval note.
func (c *Client) GetBook(ctx context.Context, id uint) (*Book, error) {
	var book Book
	if err := c.authed(ctx, http.MethodGet, bookPath(id, ""), nil, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks fetches one page of books.
func (c *Client) ListBooks(ctx context.Context, opts ListOptions) (*BookList, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.CategoryID != 0 {
		q.Set("category_id", strconv.FormatUint(uint64(opts.CategoryID), 10))
	}
	if opts.ApprovalStatus != nil {
		q.Set("approval_status", strconv.Itoa(int(*opts.ApprovalStatus)))
	}
	if opts.Status != nil {
		q.Set("status", strconv.Itoa(*opts.Status))
	}
	if opts.IsPremium != nil {
		q.Set("is_premium", strconv.FormatBool(*opts.IsPremium))
	}
	if opts.SortBy != "" {
		q.Set("sort_by", opts.SortBy)
		if opts.Descending {
			q.Set("sort_direction", "desc")
		} else {
			q.Set("sort_direction", "asc")
		}
	}
	setPaging(q, opts.Page, opts.PageSize)

	var list BookList
	if err := c.authed(ctx, http.MethodGet, "/books/list", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Statistics fetches the approval dashboard counters.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	if err := c.authed(ctx, http.MethodGet, "/books/statistics", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ManageStatus sends PUT /books/{id}/manage-status. The server appends the
// audit line itself.
func (c *Client) ManageStatus(ctx context.Context, id uint, req ManageStatusRequest) error {
	return c.authed(ctx, http.MethodPut, bookPath(id, "/manage-status"), nil, req, nil)
}

// Resubmit sends PUT /books/{id}/resubmit.
func (c *Client) Resubmit(ctx context.Context, id uint, req ResubmitRequest) error {
	return c.authed(ctx, http.MethodPut, bookPath(id, "/resubmit"), nil, req, nil)
}

// ApprovalHistory fetches the server-parsed timeline of a book.
func (c *Client) ApprovalHistory(ctx context.Context, id uint) (*ApprovalHistory, error) {
	var h ApprovalHistory
	if err := c.authed(ctx, http.MethodGet, bookPath(id, "/approval-history"), nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListCategories fetches the book categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.authed(ctx, http.MethodGet, "/book-categories", nil, nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// ListPlans fetches one page of subscription plans.
func (c *Client) ListPlans(ctx context.Context, opts PlanListOptions) (*PlanList, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Status != nil {
		q.Set("status", strconv.Itoa(*opts.Status))
	}
	if opts.IsPopular != nil {
		q.Set("is_popular", strconv.FormatBool(*opts.IsPopular))
	}
	setPaging(q, opts.Page, opts.PageSize)

	var list PlanList
	if err := c.authed(ctx, http.MethodGet, "/subscriptions", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// PlanStatistics fetches the plans dashboard counters.
func (c *Client) PlanStatistics(ctx context.Context) (*PlanStatistics, error) {
	var stats PlanStatistics
	if err := c.authed(ctx, http.MethodGet, "/subscriptions/statistics", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListReaders fetches one page of reader accounts.
func (c *Client) ListReaders(ctx context.Context, opts AccountListOptions) (*AccountList, error) {
	q := accountQuery(opts)
	if opts.Subscribed != nil {
		q.Set("has_active_subscription", strconv.FormatBool(*opts.Subscribed))
	}
	var list AccountList
	if err := c.authed(ctx, http.MethodGet, "/users", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetReader fetches a reader with subscription and payment history.
func (c *Client) GetReader(ctx context.Context, id uint) (*Reader, error) {
	var reader Reader
	if err := c.authed(ctx, http.MethodGet, idPath("/users/", id, ""), nil, nil, &reader); err != nil {
		return nil, err
	}
	return &reader, nil
}

// SetReaderActive enables or disables a reader account.
func (c *Client) SetReaderActive(ctx context.Context, id uint, active bool) (*Account, error) {
	var account Account
	body := map[string]bool{"is_active": active}
	if err := c.authed(ctx, http.MethodPatch, idPath("/users/", id, "/status"), nil, body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ManageSubscription runs an admin action on a reader's subscription.
func (c *Client) ManageSubscription(ctx context.Context, readerID uint, req ManageSubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	if err := c.authed(ctx, http.MethodPost, idPath("/users/", readerID, "/subscription/manage"), nil, req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListStaff fetches one page of Admin and Staff accounts.
func (c *Client) ListStaff(ctx context.Context, opts AccountListOptions) (*AccountList, error) {
	q := accountQuery(opts)
	if opts.Role != "" {
		q.Set("role", opts.Role)
	}
	var list AccountList
	if err := c.authed(ctx, http.MethodGet, "/staff", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateStaff sends PATCH /staff/{id}.
func (c *Client) UpdateStaff(ctx context.Context, id uint, update StaffUpdate) (*Account, error) {
	var account Account
	if err := c.authed(ctx, http.MethodPatch, idPath("/staff/", id, ""), nil, update, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func accountQuery(opts AccountListOptions) url.Values {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.IsActive != nil {
		q.Set("is_active", strconv.FormatBool(*opts.IsActive))
	}
	setPaging(q, opts.Page, opts.PageSize)
	return q
}

func setPaging(q url.Values, page, size int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("page_size", strconv.Itoa(size))
	}
}

func idPath(prefix string, id uint, suffix string) string {
	return prefix + strconv.FormatUint(uint64(id), 10) + suffix
}

func bookPath(id uint, suffix string) string {
	return idPath("/books/", id, suffix)
}

// authed performs a call with the manager's current token.
func (c *Client) authed(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.tokens == nil {
		return fmt.Errorf("%w: %w", ErrAuthExpired, tokens.ErrNoToken)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, tokens.ErrNoToken) || errors.Is(err, tokens.ErrTokenExpired) {
			return fmt.Errorf("%w: %w", ErrAuthExpired, err)
		}
		return err
	}

	err = c.do(ctx, method, path, query, body, token, out)
	if errors.Is(err, ErrAuthExpired) {
		c.tokens.Clear()
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("CMS request")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	// A 401 on an authenticated call means the session is gone. On login it
	// is just a failed attempt.
	if resp.StatusCode == http.StatusUnauthorized && bearer != "" {
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("%w: %s", ErrAuthExpired, env.Message)
		}
		return ErrAuthExpired
	}

	if resp.StatusCode >= 400 || (decodeErr == nil && env.Result == resultFailure) {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw, env, decodeErr)}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func errorMessage(status int, raw []byte, env envelope, decodeErr error) string {
	if decodeErr == nil && env.Message != "" {
		return env.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return text
	}
	return http.StatusText(status)
}
