package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// UserKey holds the persisted identity.
const UserKey = "storefront.user"

// SessionManager owns the authenticated identity. Login and Register call the
// provider outside the lock; at most one of them runs at a time.
type SessionManager struct {
	store    domain.KeyValueStore
	auth     domain.Authenticator
	notifier domain.Notifier
	log      *slog.Logger
	opts     options

	inFlight atomic.Bool

	mu       sync.Mutex
	identity *domain.Identity
	subs     subscribers[*domain.Identity]
}

func NewSessionManager(ctx context.Context, store domain.KeyValueStore, auth domain.Authenticator, notifier domain.Notifier, log *slog.Logger, opts ...Option) (*SessionManager, error) {
	if store == nil {
		return nil, fmt.Errorf("session manager: %w: store", domain.ErrMissingDependency)
	}
	if auth == nil {
		return nil, fmt.Errorf("session manager: %w: authenticator", domain.ErrMissingDependency)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if log == nil {
		log = discardLogger()
	}

	m := &SessionManager{
		store:    store,
		auth:     auth,
		notifier: notifier,
		log:      log.With("component", "session"),
		opts:     buildOptions(opts),
	}
	m.hydrate(ctx)
	return m, nil
}

func (m *SessionManager) hydrate(ctx context.Context) {
	raw, ok, err := m.store.Get(ctx, UserKey)
	if err != nil {
		m.log.Warn("could not read stored identity, starting logged out", "error", err)
		return
	}
	if !ok {
		return
	}

	var id domain.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID == "" || id.Token == "" {
		if err == nil {
			err = errors.New("identity lacks id or token")
		}
		m.log.Warn("stored identity is unusable, discarding", "error", err)
		if err := m.store.Remove(ctx, UserKey); err != nil {
			m.log.Warn("could not remove stored identity", "error", err)
		}
		return
	}
	m.identity = &id
	m.log.Debug("session restored", "user_id", id.ID)
}

// Login authenticates against the provider. Failures leave the current
// identity untouched and are reported through the notifier only.
func (m *SessionManager) Login(ctx context.Context, email, password string) bool {
	return m.authenticate(ctx, "login", func(ctx context.Context) (domain.Identity, error) {
		return m.auth.Authenticate(ctx, email, password)
	}, func(id domain.Identity) domain.Notification {
		return domain.Notification{
			Title:       "Login successful",
			Description: fmt.Sprintf("Welcome back, %s!", id.Name),
			Severity:    domain.SeverityInfo,
		}
	}, domain.Notification{
		Title:       "Login failed",
		Description: "Please check your credentials and try again.",
		Severity:    domain.SeverityDestructive,
	})
}

// Register creates an account and logs into it.
func (m *SessionManager) Register(ctx context.Context, name, email, password string) bool {
	return m.authenticate(ctx, "register", func(ctx context.Context) (domain.Identity, error) {
		return m.auth.RegisterAccount(ctx, name, email, password)
	}, func(id domain.Identity) domain.Notification {
		return domain.Notification{
			Title:       "Registration successful",
			Description: fmt.Sprintf("Welcome, %s!", id.Name),
			Severity:    domain.SeverityInfo,
		}
	}, domain.Notification{
		Title:       "Registration failed",
		Description: "Please try again with different credentials.",
		Severity:    domain.SeverityDestructive,
	})
}

func (m *SessionManager) authenticate(
	ctx context.Context,
	op string,
	call func(context.Context) (domain.Identity, error),
	success func(domain.Identity) domain.Notification,
	failure domain.Notification,
) bool {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Request in progress",
			Description: "Please wait for the current request to finish.",
			Severity:    domain.SeverityDestructive,
		})
		return false
	}
	defer m.inFlight.Store(false)

	callCtx, cancel := m.opts.callContext(ctx)
	id, err := call(callCtx)
	cancel()
	if err != nil {
		m.log.Info(op+" failed", "error", err)
		m.notifier.Notify(ctx, failure)
		return false
	}

	m.mu.Lock()
	m.identity = &id
	if err := m.persistLocked(ctx); err != nil {
		m.log.Error("could not persist identity", "error", err)
	}
	snapshot := m.cloneLocked()
	m.mu.Unlock()

	m.log.Info(op+" succeeded", "user_id", id.ID)
	m.notifier.Notify(ctx, success(id))
	m.subs.publish(snapshot)
	return true
}

// Logout forgets the identity. It always succeeds; a store failure is logged.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.identity = nil
	if err := m.store.Remove(ctx, UserKey); err != nil {
		m.log.Error("could not remove stored identity", "error", err)
	}
	m.mu.Unlock()

	m.notifier.Notify(ctx, domain.Notification{
		Title:       "Logged out",
		Description: "You have been successfully logged out.",
		Severity:    domain.SeverityInfo,
	})
	m.subs.publish(nil)
}

func (m *SessionManager) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(m.identity)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, UserKey, string(raw))
}

func (m *SessionManager) cloneLocked() *domain.Identity {
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil
}

// Identity returns a copy of the current identity.
func (m *SessionManager) Identity() (domain.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.Identity{}, false
	}
	return *m.identity, true
}

// InFlight reports whether a login or registration is waiting on the provider.
func (m *SessionManager) InFlight() bool {
	return m.inFlight.Load()
}

// Subscribe registers fn to receive the identity after every change; nil
// means logged out.
func (m *SessionManager) Subscribe(fn func(*domain.Identity)) (unsubscribe func()) {
	return m.subs.add(fn)
}
