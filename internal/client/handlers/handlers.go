package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is used when no API URL is configured
	DefaultBaseURL = "http://localhost:4000"

	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10
	userAgent        = "MTG-Next/1.0"
	maxErrorBody     = 64 << 10
)

// Options configures an APIClient
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 uses the default
}

// APIClient talks to the catalog HTTP API
type APIClient struct {
	log        *logger.Logger
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.RWMutex
	accessToken string
}

// NewAPIClient creates a client for the API rooted at opts.BaseURL
func NewAPIClient(opts Options, log *logger.Logger) (*APIClient, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}

	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", raw)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rps := opts.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}

	return &APIClient{
		log:        log.With("api"),
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}, nil
}

// BaseURL returns the API root
func (c *APIClient) BaseURL() string {
	return c.baseURL.String()
}

// SetAccessToken sets the bearer token sent with authenticated requests
func (c *APIClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

// AccessToken returns the current bearer token
func (c *APIClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *APIClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// ListCards fetches one page of cards matching q
func (c *APIClient) ListCards(ctx context.Context, q models.CardQuery) (*models.CardSearchResponse, error) {
	c.log.Debugf("ListCards page=%d limit=%d", q.Page, q.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/cards", q.Values()), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out models.CardSearchResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if out.Cards == nil {
		out.Cards = []models.Card{}
	}

	return &out, nil
}

// CardImageURL returns the address of a card image
func (c *APIClient) CardImageURL(cardID string) string {
	return c.endpoint("/api/cards/"+url.PathEscape(cardID)+"/image", nil)
}

// CardImage downloads the image of a card
func (c *APIClient) CardImage(ctx context.Context, cardID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CardImageURL(cardID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("card image %s: %w", cardID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card image %s: %w", cardID, readAPIError(resp))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read card image %s: %w", cardID, err)
	}
	return data, nil
}

// CreateCard posts the add-card form as multipart data. A nil card with a nil
// error means the server accepted the card but its response body could not be
// decoded.
func (c *APIClient) CreateCard(ctx context.Context, card models.NewCard) (*models.Card, error) {
	c.log.Info("CreateCard called!")

	body, contentType, err := encodeNewCard(card)
	if err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/cards", nil), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := readAPIError(resp)
		c.log.Errorf("CreateCard rejected: %v", apiErr)
		return nil, apiErr
	}

	// The created card is informative only; the list is refetched afterwards.
	var created models.Card
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		c.log.Warningf("CreateCard: card created (status %d) but the response body is unreadable: %v", resp.StatusCode, err)
		return nil, nil
	}
	return &created, nil
}

// Login authenticates against /api/auth/login and keeps the access token
func (c *APIClient) Login(ctx context.Context, reg models.RegisterAndLogin) (*models.AuthResponse, error) {
	c.log.Info("Login called!")

	reg.Email = ""
	res, err := c.authenticate(ctx, "/api/auth/login", reg)
	if err != nil {
		c.log.Error("Error login user")
		return nil, err
	}
	return res, nil
}

// Register creates an account through /api/auth/register and keeps the access token
func (c *APIClient) Register(ctx context.Context, reg models.RegisterAndLogin) (*models.AuthResponse, error) {
	c.log.Info("Register called!")

	res, err := c.authenticate(ctx, "/api/auth/register", reg)
	if err != nil {
		c.log.Error("Error registering user")
		return nil, err
	}
	return res, nil
}

// Logout forgets the access token
func (c *APIClient) Logout() {
	c.SetAccessToken("")
}

func (c *APIClient) authenticate(ctx context.Context, path string, reg models.RegisterAndLogin) (*models.AuthResponse, error) {
	payload, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var res models.AuthResponse
	if err := c.doJSON(req, &res); err != nil {
		return nil, err
	}

	if res.Token == "" {
		c.log.Error("Empty token")
		return nil, fmt.Errorf("%w: empty token", ErrInvalidResponse)
	}
	if res.User.Username == "" {
		res.User.Username = reg.Username
	}

	c.SetAccessToken(res.Token)
	return &res, nil
}

func (c *APIClient) authorize(req *http.Request) {
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// do sends req after waiting for the rate limiter
func (c *APIClient) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warningf("%s %s failed (request %s): %v", req.Method, req.URL.Path, requestID, err)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	c.log.Debugf("%s %s -> %d in %s (request %s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start), requestID)
	return resp, nil
}

// doJSON sends req and decodes a 2xx JSON body into out
func (c *APIClient) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return newAPIError(resp.StatusCode, body)
}
