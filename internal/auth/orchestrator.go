package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/session"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

var (
	ErrLoginFailed     = errors.New("login failed")
	ErrLoginInProgress = errors.New("login already in progress")
)

const (
	DefaultLoginEndpoint = "/auth/login"
	publishTimeout       = 5 * time.Second
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      models.ID `json:"user_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
}

type Snapshot struct {
	State         State        `json:"state"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
	FullName      string       `json:"full_name,omitempty"`
}

// Orchestrator owns the one operator session of this process: the stored
// token, the in-memory profile and the lifecycle between them.
type Orchestrator struct {
	client   *apiclient.Client
	tokens   session.Store
	nav      Navigator
	events   EventPublisher
	topic    string
	endpoint string
	now      func() time.Time
	onEnd    []func()

	mu    sync.Mutex
	state State
	user  *models.User
}

type Option func(*Orchestrator)

func WithNavigator(n Navigator) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.nav = n
		}
	}
}

func WithEvents(p EventPublisher, topic string) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.events, o.topic = p, topic
		}
	}
}

func WithLoginEndpoint(path string) Option {
	return func(o *Orchestrator) {
		if path != "" {
			o.endpoint = path
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// OnSessionEnd registers fn to run after logout or expiry, outside any lock.
func OnSessionEnd(fn func()) Option {
	return func(o *Orchestrator) { o.onEnd = append(o.onEnd, fn) }
}

// New wires the orchestrator into client so every 401 ends the session.
func New(client *apiclient.Client, tokens session.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		tokens:   tokens,
		nav:      noopNavigator{},
		events:   noopPublisher{},
		endpoint: DefaultLoginEndpoint,
		now:      time.Now,
		state:    StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(o)
	}
	client.OnUnauthorized(o.expire)
	return o
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{State: o.state, Authenticated: o.state == StateAuthenticated}
	if o.user != nil {
		u := *o.user
		s.User = &u
		s.FullName = u.FullName()
	}
	return s
}

func (o *Orchestrator) Authenticated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == StateAuthenticated
}

// Restore resumes a session from the stored token. An expired or malformed
// token is removed. Missing profile claims still restore the session, with
// an unknown profile.
func (o *Orchestrator) Restore(ctx context.Context) State {
	l := logging.FromContext(ctx).With("svc", "auth")

	token, ok := o.tokens.Get(ctx)
	if !ok || token == "" {
		o.mu.Lock()
		o.state, o.user = StateUnauthenticated, nil
		o.mu.Unlock()
		return StateUnauthenticated
	}
	if !session.DecodeExpiry(token, o.now()) {
		if err := o.tokens.Remove(ctx); err != nil {
			l.Error("token_remove_failed", "error", err)
		}
		l.Info("session_restore_skipped", "reason", "token expired or malformed")
		o.mu.Lock()
		o.state, o.user = StateUnauthenticated, nil
		o.mu.Unlock()
		return StateUnauthenticated
	}

	var user *models.User
	if u, ok := session.DecodeUser(token); ok {
		user = &u
	}
	o.mu.Lock()
	o.state, o.user = StateAuthenticated, user
	o.mu.Unlock()
	l.Info("session_restored", "profile_known", user != nil)
	return StateAuthenticated
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Login(ctx context.Context, email, password string) (models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}

	o.mu.Lock()
	if o.state == StateAuthenticating {
		o.mu.Unlock()
		return models.User{}, ErrLoginInProgress
	}
	prev := o.state
	o.state = StateAuthenticating
	o.mu.Unlock()

	fail := func(err error) (models.User, error) {
		o.mu.Lock()
		o.state = prev
		o.mu.Unlock()
		l.Warn("login_failed", "error", err)
		return models.User{}, err
	}

	var resp loginResponse
	err := o.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   o.endpoint,
		Body:   loginRequest{Email: email, Password: password},
		Public: true,
	}, &resp)
	if err != nil {
		if re, ok := apiclient.IsRemote(err); ok && re.Detail == "" {
			return fail(ErrLoginFailed)
		}
		return fail(err)
	}
	if resp.AccessToken == "" {
		return fail(ErrLoginFailed)
	}
	if err := o.tokens.Save(ctx, resp.AccessToken); err != nil {
		return fail(fmt.Errorf("save token: %w", err))
	}

	user := models.User{
		ID:        resp.UserID,
		Email:     resp.Email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
	}
	o.mu.Lock()
	o.state, o.user = StateAuthenticated, &user
	o.mu.Unlock()

	l.Info("login_success", "user_id", string(user.ID))
	o.publish(ctx, EventLogin, user)
	o.nav.Navigate(ctx, RouteDashboard)
	return user, nil
}

// Logout cannot fail: storage errors are logged and the session still ends.
func (o *Orchestrator) Logout(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "auth")
	if err := o.tokens.Remove(ctx); err != nil {
		l.Error("token_remove_failed", "error", err)
	}

	o.mu.Lock()
	user := o.user
	o.state, o.user = StateUnauthenticated, nil
	o.mu.Unlock()

	l.Info("logout")
	var u models.User
	if user != nil {
		u = *user
	}
	o.publish(ctx, EventLogout, u)
	o.end()
	o.nav.Navigate(ctx, RouteLogin)
}

// expire runs from the client after a 401; the token is already gone.
// Only the first 401 of an active session navigates.
func (o *Orchestrator) expire(ctx context.Context) {
	o.mu.Lock()
	// Parallel calls (audit logs plus statistics) can both come back 401.
	// The first one ends the session and redirects; later ones find the
	// state already unauthenticated and skip the redirect, so it happens
	// once. A 401 with no session to end is left to RequireSession.
	if o.state == StateUnauthenticated {
		o.mu.Unlock()
		return
	}
	user := o.user
	o.state, o.user = StateUnauthenticated, nil
	o.mu.Unlock()

	logging.FromContext(ctx).With("svc", "auth").Warn("session_expired")
	var u models.User
	if user != nil {
		u = *user
	}
	o.publish(ctx, EventExpired, u)
	o.end()
	o.nav.Navigate(ctx, RouteLogin)
}

func (o *Orchestrator) end() {
	for _, fn := range o.onEnd {
		fn()
	}
}

func (o *Orchestrator) publish(ctx context.Context, kind string, u models.User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := Event{Type: kind, UserID: string(u.ID), Email: u.Email, At: o.now().UTC()}
	if err := o.events.PublishEvent(ctx, o.topic, string(u.ID), ev); err != nil {
		logging.FromContext(ctx).With("svc", "auth").Warn("session_event_failed", "type", kind, "error", err)
	}
}
