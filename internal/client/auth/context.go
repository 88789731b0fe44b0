// Package auth keeps the signed-in session of the client and drives the
// login and registration form.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/handlers"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/service"
	"github.com/Druxys/MTG-Next/package/jwtauth"
	"github.com/Druxys/MTG-Next/package/logger"
)

var (
	// ErrInvalidCredentials is returned when the API rejects a login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationRejected is returned when the API rejects a registration
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrNotAuthenticated is returned by operations that need a session
	ErrNotAuthenticated = errors.New("not authenticated")
)

// API is the part of the catalog client used for authentication
type API interface {
	Login(ctx context.Context, reg models.RegisterAndLogin) (*models.AuthResponse, error)
	Register(ctx context.Context, reg models.RegisterAndLogin) (*models.AuthResponse, error)
	SetAccessToken(token string)
	Logout()
}

// SessionStore persists the session between runs
type SessionStore interface {
	SaveSession(ctx context.Context, session models.Session) error
	LoadSession(ctx context.Context) (*models.Session, error)
	ClearSession(ctx context.Context) error
}

// Context is the session shared by every component that needs to know who
// is signed in.
type Context struct {
	mu        sync.Mutex
	api       API
	store     SessionStore
	user      *models.User
	token     string
	listeners map[int]func(*models.User)
	nextID    int
	now       func() time.Time
	logger    *logger.Logger
}

// NewContext creates a signed-out context
func NewContext(api API, store SessionStore, log *logger.Logger) *Context {
	return &Context{
		api:       api,
		store:     store,
		listeners: make(map[int]func(*models.User)),
		now:       time.Now,
		logger:    log.With("auth"),
	}
}

// Init restores the persisted session. Expired sessions are discarded.
func (c *Context) Init(ctx context.Context) error {
	session, err := c.store.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			c.logger.Debug("No session to restore")
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}

	now := c.now()
	info, inspectErr := jwtauth.Inspect(session.Token)
	if inspectErr == nil && info.Expired(now) {
		c.logger.Info("Stored session expired, discarding it")
		if err := c.store.ClearSession(ctx); err != nil {
			c.logger.Warningf("Failed to clear expired session: %v", err)
		}
		return nil
	}

	c.signIn(&models.User{Username: session.Username}, session.Token)
	if inspectErr == nil && info.HasExpiry() {
		c.logger.Infof("Restored session for %s, valid for %s", session.Username, info.Remaining(now).Round(time.Minute))
	} else {
		c.logger.Infof("Restored session for %s", session.Username)
	}
	return nil
}

// Login signs in with username and password
func (c *Context) Login(ctx context.Context, username, password string) error {
	resp, err := c.api.Login(ctx, models.RegisterAndLogin{Username: username, Password: password})
	if err != nil {
		if rejected(err) {
			c.logger.Warningf("Login rejected for %s", username)
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return err
	}
	c.afterAuth(ctx, resp)
	return nil
}

// Register creates an account and signs in with it
func (c *Context) Register(ctx context.Context, username, email, password string) error {
	resp, err := c.api.Register(ctx, models.RegisterAndLogin{Username: username, Email: email, Password: password})
	if err != nil {
		if rejected(err) {
			c.logger.Warningf("Registration rejected for %s", username)
			return fmt.Errorf("%w: %w", ErrRegistrationRejected, err)
		}
		return err
	}
	c.afterAuth(ctx, resp)
	return nil
}

// Logout forgets the session in memory and on disk
func (c *Context) Logout(ctx context.Context) error {
	c.api.Logout()
	c.signIn(nil, "")
	c.logger.Info("Signed out")

	if err := c.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// User returns the signed-in user, nil when signed out
func (c *Context) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token returns the access token, empty when signed out
func (c *Context) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// IsAuthenticated reports whether a session exists and its token has not
// expired
func (c *Context) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != "" && !jwtauth.Expired(c.token, c.now())
}

// Require returns ErrNotAuthenticated when there is no valid session
func (c *Context) Require() error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// Subscribe registers fn to be called with the user after every sign in or
// sign out. The returned func removes the listener.
func (c *Context) Subscribe(fn func(*models.User)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Context) afterAuth(ctx context.Context, resp *models.AuthResponse) {
	user := resp.User
	c.signIn(&user, resp.Token)
	c.logger.Infof("Signed in as %s", user.Username)

	session := models.Session{Username: user.Username, Token: resp.Token, CreatedAt: c.now()}
	if err := c.store.SaveSession(ctx, session); err != nil {
		c.logger.Warningf("Failed to persist session: %v", err)
	}
}

func (c *Context) signIn(user *models.User, token string) {
	c.mu.Lock()
	c.user = user
	c.token = token
	listeners := make([]func(*models.User), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	c.api.SetAccessToken(token)
	for _, fn := range listeners {
		fn(c.User())
	}
}

// rejected reports whether the API answered and refused the request, as
// opposed to the request never completing.
func rejected(err error) bool {
	var apiErr *handlers.APIError
	return errors.As(err, &apiErr) || errors.Is(err, handlers.ErrInvalidResponse)
}
