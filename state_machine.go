package authclient

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authclient/credstore"
)

// sessionData is the state applied atomically by a transition.
type sessionData struct {
	token     string
	identity  Identity
	challenge *pendingChallenge
}

// sessionMachine owns the authoritative session state. It is the only place
// status, token, and pending challenge are mutated, and it serializes
// transitions so a login and a concurrent logout cannot interleave.
type sessionMachine struct {
	mu        sync.RWMutex
	status    SessionStatus
	token     string
	identity  Identity
	challenge *pendingChallenge

	store       credstore.Store
	transitions map[SessionStatus]map[SessionStatus]struct{}
	now         func() time.Time
	sink        ActivitySink
	logger      Logger

	listenerMu   sync.Mutex
	listeners    map[int]StatusListener
	nextListener int
}

func newSessionMachine(store credstore.Store, logger Logger, sink ActivitySink, clock func() time.Time) *sessionMachine {
	if clock == nil {
		clock = time.Now
	}

	return &sessionMachine{
		status: StatusAnonymous,
		store:  store,
		transitions: map[SessionStatus]map[SessionStatus]struct{}{
			StatusAnonymous: {
				StatusPendingVerification: {},
				StatusPending2FA:          {},
				StatusAuthenticated:       {},
			},
			StatusPendingVerification: {
				StatusAuthenticated: {},
				StatusAnonymous:     {},
			},
			StatusPending2FA: {
				StatusAuthenticated: {},
				StatusAnonymous:     {},
			},
			StatusAuthenticated: {
				StatusAnonymous: {},
			},
		},
		now:       clock,
		sink:      normalizeActivitySink(sink),
		logger:    logger,
		listeners: map[int]StatusListener{},
	}
}

// snapshot returns the current session without suspending. The token never
// leaves the machine.
func (sm *sessionMachine) snapshot() Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return Session{
		Status:   sm.status,
		Identity: sm.identity,
		HasToken: sm.token != "",
	}
}

// currentToken is the TokenSource for the request authorizer: it yields a
// credential only while the session is authenticated.
func (sm *sessionMachine) currentToken() (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.status != StatusAuthenticated || sm.token == "" {
		return "", false
	}
	return sm.token, true
}

// pendingInfo returns a copy of the parked challenge, if any.
func (sm *sessionMachine) pendingInfo() (pendingChallenge, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.challenge == nil {
		return pendingChallenge{}, false
	}
	return *sm.challenge, true
}

func (sm *sessionMachine) canTransition(from, to SessionStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// transition moves the session to target, enforcing the transition table and
// the token/challenge invariants, and mirrors the change into the credential
// store. The store write happens before the in-memory commit so a persistence
// failure leaves the session where it was.
func (sm *sessionMachine) transition(ctx context.Context, target SessionStatus, data sessionData, event ActivityEventType, metadata map[string]any) (Session, error) {
	sm.mu.Lock()

	from := sm.status
	if !sm.canTransition(from, target) {
		sm.mu.Unlock()
		return sm.snapshot(), withMeta(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	switch target {
	case StatusAuthenticated:
		if data.token == "" {
			sm.mu.Unlock()
			return sm.snapshot(), goerrors.New("authenticated transition without a token", goerrors.CategoryInternal)
		}
		data.challenge = nil
		if err := sm.store.Save(ctx, credstore.Record{
			Token:      data.token,
			IdentityID: data.identity.ID,
			SavedAt:    sm.now(),
		}); err != nil {
			sm.mu.Unlock()
			return sm.snapshot(), goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist credential")
		}
	case StatusPendingVerification, StatusPending2FA:
		if data.challenge == nil {
			sm.mu.Unlock()
			return sm.snapshot(), goerrors.New("pending transition without a challenge", goerrors.CategoryInternal)
		}
		data.token = ""
	default:
		data.token = ""
		data.challenge = nil
		data.identity = Identity{}
		if err := sm.store.Clear(ctx); err != nil {
			// Local invalidation still proceeds: a stale row is recoverable,
			// a session that refuses to log out is not.
			sm.logger.Warn("failed to clear credential store: %v", err)
		}
	}

	sm.status = target
	sm.token = data.token
	sm.identity = data.identity
	sm.challenge = data.challenge
	snap := Session{Status: target, Identity: data.identity, HasToken: data.token != ""}
	sm.mu.Unlock()

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  event,
		IdentityID: data.identity.ID,
		FromStatus: from,
		ToStatus:   target,
		Metadata:   metadata,
	})
	sm.notify(from, target)

	return snap, nil
}

// demote erases the credential and forces the session to anonymous after the
// authorizer reports a 401. It is idempotent per credential: only the first
// report for the token that is still live wins, later concurrent reports are
// no-ops, so the caller can surface a re-authentication prompt exactly once.
func (sm *sessionMachine) demote(ctx context.Context, observedToken string) bool {
	sm.mu.Lock()

	if sm.status != StatusAuthenticated || observedToken == "" || sm.token != observedToken {
		sm.mu.Unlock()
		return false
	}

	from := sm.status
	identityID := sm.identity.ID

	if err := sm.store.Clear(ctx); err != nil {
		sm.logger.Warn("failed to clear credential store during demotion: %v", err)
	}

	sm.status = StatusAnonymous
	sm.token = ""
	sm.identity = Identity{}
	sm.challenge = nil
	sm.mu.Unlock()

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventSessionDemoted,
		IdentityID: identityID,
		FromStatus: from,
		ToStatus:   StatusAnonymous,
		Metadata:   map[string]any{"via": StatusInvalid},
	})
	sm.notify(from, StatusAnonymous)

	return true
}

// hydrate loads the stored credential and optimistically restores an
// authenticated session without a network round trip. Called once at startup
// before any transition.
func (sm *sessionMachine) hydrate(ctx context.Context, record credstore.Record, identity Identity) {
	sm.mu.Lock()
	from := sm.status
	sm.status = StatusAuthenticated
	sm.token = record.Token
	sm.identity = identity
	sm.challenge = nil
	sm.mu.Unlock()

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventSessionHydrated,
		IdentityID: identity.ID,
		FromStatus: from,
		ToStatus:   StatusAuthenticated,
	})
	sm.notify(from, StatusAuthenticated)
}

// refreshIdentity applies a freshly fetched identity snapshot, but only when
// the session still holds the token the fetch was issued under. A response
// that lands after a logout or demotion is discarded rather than re-promoting
// stale data.
func (sm *sessionMachine) refreshIdentity(token string, identity Identity) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.status != StatusAuthenticated || token == "" || sm.token != token {
		return false
	}

	sm.identity = identity
	return true
}

func (sm *sessionMachine) subscribe(listener StatusListener) func() {
	sm.listenerMu.Lock()
	defer sm.listenerMu.Unlock()

	id := sm.nextListener
	sm.nextListener++
	sm.listeners[id] = listener

	return func() {
		sm.listenerMu.Lock()
		defer sm.listenerMu.Unlock()
		delete(sm.listeners, id)
	}
}

func (sm *sessionMachine) notify(from, to SessionStatus) {
	if from == to {
		return
	}

	sm.listenerMu.Lock()
	listeners := make([]StatusListener, 0, len(sm.listeners))
	for _, l := range sm.listeners {
		listeners = append(listeners, l)
	}
	sm.listenerMu.Unlock()

	for _, l := range listeners {
		if l != nil {
			l(from, to)
		}
	}
}

func (sm *sessionMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	if err := sm.sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}
