package authclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authclient/credstore"
)

// Client owns the single session of a running application. All session
// mutation funnels through its state machine; everything else only reads
// snapshots. Auth flows (login, verification, 2FA, logout, hydrate) are
// serialized with respect to each other, while any number of data calls can
// be in flight concurrently.
type Client struct {
	cfg     Config
	api     *apiClient
	machine *sessionMachine
	store   credstore.Store
	logger  Logger
	sink    ActivitySink

	// flow serializes session transitions end to end, network round trip
	// included, so a login and a concurrent logout cannot interleave.
	flow sync.Mutex

	httpClient *http.Client
	clock      func() time.Time
}

var _ SessionAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithLogger overrides the default stdout logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActivitySink forwards session and auth events to the given sink.
func WithActivitySink(sink ActivitySink) Option {
	return func(c *Client) {
		c.sink = normalizeActivitySink(sink)
	}
}

// WithCredentialStore overrides the credential store. Defaults to the SQLite
// store at Config.CredentialsPath, or an in-memory store when the path is
// empty.
func WithCredentialStore(store credstore.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithHTTPClient supplies the HTTP client to wrap. Its transport is chained
// behind the Authorizer; its cookie jar and timeout are kept.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New builds a Client for the API at cfg.BaseURL. The session starts
// anonymous; call Hydrate to restore a persisted credential.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid client configuration")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = "US"
	}

	c := &Client{
		cfg:    cfg,
		logger: defLogger{},
		sink:   noopActivitySink{},
		clock:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.store == nil {
		if cfg.CredentialsPath != "" {
			store, err := credstore.OpenSQLite(context.Background(), cfg.CredentialsPath)
			if err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open credential store")
			}
			c.store = store
		} else {
			c.store = credstore.NewMemory()
		}
	}

	c.machine = newSessionMachine(c.store, c.logger, c.sink, c.clock)

	if c.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create cookie jar")
		}
		c.httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		}
	}

	c.httpClient.Transport = NewAuthorizer(
		c.machine.currentToken,
		WithBaseTransport(c.httpClient.Transport),
		WithUnauthorizedFunc(func(token string) {
			c.machine.demote(context.Background(), token)
		}),
	)

	c.api = &apiClient{
		baseURL:   trimTrailingSlash(cfg.BaseURL),
		http:      c.httpClient,
		logger:    c.logger,
		userAgent: cfg.UserAgent,
		debug:     cfg.Debug,
	}

	return c, nil
}

// Status returns a snapshot of the current session. It never suspends.
func (c *Client) Status() Session {
	return c.machine.snapshot()
}

// Subscribe registers a listener notified after every status change. The
// returned function removes it.
func (c *Client) Subscribe(listener StatusListener) func() {
	return c.machine.subscribe(listener)
}

// Hydrate restores a persisted credential as an optimistically authenticated
// session, without a network round trip. A stale JWT (expired, or issued for
// a different identity than recorded) clears the store instead. Validity is
// asserted lazily: the first 401 on any subsequent call demotes the session.
func (c *Client) Hydrate(ctx context.Context) (Session, error) {
	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if snap.Status != StatusAnonymous {
		return snap, withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "hydrate",
		})
	}

	record, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return snap, nil
		}
		return snap, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load stored credential")
	}

	identity, ok := inspectStoredToken(record.Token, record.IdentityID, c.clock())
	if !ok {
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("failed to clear stale credential: %v", err)
		}
		return c.machine.snapshot(), nil
	}

	c.machine.hydrate(ctx, *record, identity)
	return c.machine.snapshot(), nil
}

// LoginRequest is the payload for Login.
type LoginRequest struct {
	// Login accepts an email, username, or phone number.
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Validate implements client-side checks before the request goes out.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Password, validation.Required),
	)
}

type loginResponse struct {
	Token                string    `json:"token"`
	User                 *wireUser `json:"user"`
	RequiresVerification bool      `json:"requires_verification"`
	Requires2FA          bool      `json:"requires_2fa"`
	Message              string    `json:"message"`
}

// wireUser is the backend's user shape; ids arrive as numbers.
type wireUser struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Type             string `json:"type"`
	EmailVerified    bool   `json:"email_verified"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

func (u *wireUser) identity() Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{
		ID:               strconv.FormatInt(u.ID, 10),
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Type,
		Verified:         u.EmailVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// Login submits credentials and resolves to the next session status:
// authenticated when the server issues a token directly, pending-verification
// when email ownership is unconfirmed, pending-2fa when a second factor is
// required. Invalid credentials surface as ErrInvalidCredentials with no
// state change.
func (c *Client) Login(ctx context.Context, identifier, password string) (Session, error) {
	payload := LoginRequest{Login: identifier, Password: password}
	if err := payload.Validate(); err != nil {
		return c.Status(), goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	login := NormalizeIdentifier(identifier, c.cfg.PhoneRegion)

	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if snap.Status != StatusAnonymous {
		return snap, withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "login",
		})
	}

	resp := loginResponse{}
	err := c.api.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Login: login, Password: password}, &resp)
	if err != nil {
		if hasTextCode(err, textCodeVerificationRequired) {
			// Correct password, unconfirmed email: the server withholds the
			// token and the login parks on the verification challenge.
			return c.machine.transition(ctx, StatusPendingVerification, sessionData{
				challenge: &pendingChallenge{Login: login, Email: login},
			}, ActivityEventStatusChanged, map[string]any{"reason": "verification required"})
		}
		if isUnauthorized(err) {
			c.recordAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{"login": login})
			return snap, withMeta(ErrInvalidCredentials, map[string]any{"login": login})
		}
		c.recordAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"login": login,
			"error": err.Error(),
		})
		return snap, err
	}

	switch {
	case resp.Requires2FA:
		return c.machine.transition(ctx, StatusPending2FA, sessionData{
			challenge: &pendingChallenge{
				Login:      login,
				Email:      resp.User.identity().Email,
				IdentityID: resp.User.identity().ID,
			},
		}, ActivityEventStatusChanged, map[string]any{"reason": "second factor required"})
	case resp.RequiresVerification:
		return c.machine.transition(ctx, StatusPendingVerification, sessionData{
			challenge: &pendingChallenge{
				Login:      login,
				Email:      challengeEmail(resp.User, login),
				IdentityID: resp.User.identity().ID,
			},
		}, ActivityEventStatusChanged, map[string]any{"reason": "verification required"})
	case resp.Token != "":
		return c.machine.transition(ctx, StatusAuthenticated, sessionData{
			token:    resp.Token,
			identity: resp.User.identity(),
		}, ActivityEventLoginSuccess, map[string]any{"login": login})
	default:
		return snap, goerrors.New("login response carried no token and no challenge", goerrors.CategoryInternal)
	}
}

// Logout erases the credential locally and revokes it server-side on a best
// effort basis. Logging out an anonymous session is a no-op; a pending login
// is abandoned.
func (c *Client) Logout(ctx context.Context) error {
	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if !snap.IsAuthenticated() {
		if snap.IsPending() {
			_, err := c.machine.transition(ctx, StatusAnonymous, sessionData{}, ActivityEventLogout, nil)
			return err
		}
		return nil
	}

	token, _ := c.machine.currentToken()

	// Local invalidation first: logout must succeed even offline.
	if _, err := c.machine.transition(ctx, StatusAnonymous, sessionData{}, ActivityEventLogout, nil); err != nil {
		return err
	}

	// A 401 here means the token was already dead server-side, same outcome.
	if err := c.api.doWithBearer(ctx, http.MethodPost, "/auth/logout", token, nil, nil); err != nil && !isUnauthorized(err) {
		c.logger.Warn("logout revocation failed: %v", err)
	}

	return nil
}

// CurrentUser fetches the identity behind the live session and refreshes the
// local snapshot. The result is discarded if the session moved on while the
// request was in flight.
func (c *Client) CurrentUser(ctx context.Context) (Identity, error) {
	token, ok := c.machine.currentToken()
	if !ok {
		return Identity{}, withMeta(ErrInvalidTransition, map[string]any{
			"from":  c.machine.snapshot().Status,
			"event": "current_user",
		})
	}

	user := wireUser{}
	if err := c.Do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return Identity{}, err
	}

	identity := user.identity()
	c.machine.refreshIdentity(token, identity)
	return identity, nil
}

// Do executes an authenticated JSON API call. The bearer token is attached by
// the Authorizer while the session is authenticated; a 401 demotes the
// session (once) and surfaces as ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	err := c.api.do(ctx, method, path, in, out)
	if isUnauthorized(err) {
		return withMeta(ErrSessionExpired, map[string]any{
			"method": method,
			"path":   path,
		})
	}
	return err
}

func (c *Client) recordAuthEvent(ctx context.Context, event ActivityEventType, identityID string, metadata map[string]any) {
	e := ActivityEvent{
		EventType:  event,
		IdentityID: identityID,
		Metadata:   metadata,
		OccurredAt: c.clock(),
	}
	if err := c.sink.Record(ctx, e); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

// challengeEmail picks the address verification codes go to: the server's
// user record when present, otherwise the login identifier (which may be a
// username the server resolves itself).
func challengeEmail(user *wireUser, login string) string {
	if email := user.identity().Email; email != "" {
		return email
	}
	return login
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
