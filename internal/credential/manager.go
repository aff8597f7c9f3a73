package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tooplick/qqmusic-web/internal/qqmusic"
	"golang.org/x/sync/singleflight"
)

// Renewal errors. They are wrapped together with the underlying cause, so
// check them with errors.Is.
var (
	// ErrRefreshedUnsaved means the credential was refreshed but could not be
	// persisted. The refreshed credential is still returned and usable.
	ErrRefreshedUnsaved = errors.New("credential: refreshed but not saved")

	// ErrNotRefreshable means the credential is expired and lacks refresh
	// material.
	ErrNotRefreshable = errors.New("credential: expired and not refreshable")

	// ErrCheckFailed means the expiry or refreshability check itself failed.
	ErrCheckFailed = errors.New("credential: status check failed")

	// ErrRefreshFailed means the refresh call failed.
	ErrRefreshFailed = errors.New("credential: refresh failed")
)

// Authority answers lifecycle questions about a credential.
// *qqmusic.Client satisfies it.
type Authority interface {
	CheckExpired(ctx context.Context, cred *qqmusic.Credential) (bool, error)
	CanRefresh(ctx context.Context, cred *qqmusic.Credential) (bool, error)
	Refresh(ctx context.Context, cred *qqmusic.Credential) (*qqmusic.Credential, error)
}

// State classifies the credential the manager last looked at.
type State int

const (
	StateAbsent State = iota
	StateValid
	StateExpiredRefreshable
	StateExpiredNonRefreshable
	StateRefreshFailed
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateExpiredRefreshable:
		return "expired-refreshable"
	case StateExpiredNonRefreshable:
		return "expired-non-refreshable"
	case StateRefreshFailed:
		return "refresh-failed"
	default:
		return "unknown"
	}
}

// Status is a human-readable summary for status displays. Download decisions
// never read it.
type Status struct {
	Enabled   bool      `json:"enabled"`
	LastCheck time.Time `json:"last_check"`
	Message   string    `json:"status"`
	Expired   bool      `json:"expired"`
	State     State     `json:"-"`
}

// Manager owns the process-wide credential.
//
// The current credential lives in a single atomic cell: readers never see a
// half-updated value, and Save publishes a new value only after the store
// accepted it. The store is read lazily on the first Get.
//
// Example usage:
//
//	mgr := credential.NewManager(store, catalog, logger)
//	cred := mgr.Get(ctx)               // nil when logged out
//	cred, err := mgr.Renew(ctx, cred) // refresh when expired
type Manager struct {
	store  Store
	auth   Authority
	logger *slog.Logger
	now    func() time.Time

	current atomic.Pointer[qqmusic.Credential]

	mu     sync.Mutex
	loaded bool

	renewals singleflight.Group

	statusMu sync.RWMutex
	status   Status
}

// NewManager creates a Manager backed by store. logger may be nil.
func NewManager(store Store, auth Authority, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
		status: Status{
			Enabled: true,
			Message: "no credential detected",
			Expired: true,
			State:   StateAbsent,
		},
	}
}

// Load reads the credential from the store and publishes it.
//
// Absence and read or decode failures are logged and reported as nil; the
// current value is left untouched in that case.
func (m *Manager) Load(ctx context.Context) *qqmusic.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) *qqmusic.Credential {
	m.loaded = true

	cred, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			m.logger.Info("no stored credential")
		} else {
			m.logger.Error("failed to load credential", "error", err)
		}
		return nil
	}

	m.current.Store(cred)
	m.logger.Info("credential loaded")
	return cred
}

// Get returns the current credential, loading it from the store on first
// use. It returns nil when no credential is available.
//
// The store is consulted at most once until Invalidate or ForceReload.
func (m *Manager) Get(ctx context.Context) *qqmusic.Credential {
	if cred := m.current.Load(); cred != nil {
		return cred
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cred := m.current.Load(); cred != nil {
		return cred
	}
	if m.loaded {
		return nil
	}
	return m.loadLocked(ctx)
}

// Save persists cred and then makes it current.
//
// On failure the current credential is unchanged.
func (m *Manager) Save(ctx context.Context, cred *qqmusic.Credential) error {
	if cred == nil {
		return errors.New("credential: cannot save nil credential")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, cred); err != nil {
		m.logger.Error("failed to save credential", "error", err)
		return err
	}
	m.loaded = true
	m.current.Store(cred)

	m.logger.Info("credential saved")
	return nil
}

// ForceReload re-reads the store regardless of the current value.
func (m *Manager) ForceReload(ctx context.Context) *qqmusic.Credential {
	m.logger.Info("reloading credential")
	return m.Load(ctx)
}

// Invalidate drops the current credential; the next Get reads the store.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.current.Store(nil)
}

// Renew makes sure cred is usable.
//
// Outcomes:
//   - not expired: cred, nil
//   - expired and refreshed: the new credential, nil (also saved and made current)
//   - refreshed but saving failed: the new credential, ErrRefreshedUnsaved
//   - expired without refresh material: nil, ErrNotRefreshable
//   - check failed: nil, ErrCheckFailed
//   - refresh failed: nil, ErrRefreshFailed
//
// Concurrent renewals of the same credential share one round of catalog
// calls. The shared round is not cancelled with any one caller; each caller
// stops waiting when its own ctx is done.
func (m *Manager) Renew(ctx context.Context, cred *qqmusic.Credential) (*qqmusic.Credential, error) {
	if cred == nil {
		return nil, ErrNoCredential
	}

	key := fmt.Sprintf("%p", cred)
	shared := context.WithoutCancel(ctx)
	ch := m.renewals.DoChan(key, func() (any, error) {
		return m.renew(shared, cred)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		next, _ := r.Val.(*qqmusic.Credential)
		return next, r.Err
	}
}

func (m *Manager) renew(ctx context.Context, cred *qqmusic.Credential) (*qqmusic.Credential, error) {
	expired, err := m.auth.CheckExpired(ctx, cred)
	if err != nil {
		m.logger.Error("credential expiry check failed", "error", err)
		m.setStatus(fmt.Sprintf("credential check failed: %v", err), true, StateRefreshFailed)
		return nil, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if !expired {
		m.setStatus("credential valid", false, StateValid)
		return cred, nil
	}

	ok, err := m.auth.CanRefresh(ctx, cred)
	if err != nil {
		m.logger.Error("credential refresh check failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if !ok {
		m.logger.Warn("credential expired and cannot be refreshed")
		m.setStatus("credential expired and cannot be refreshed", true, StateExpiredNonRefreshable)
		return nil, ErrNotRefreshable
	}

	m.logger.Info("refreshing expired credential")
	next, err := m.auth.Refresh(ctx, cred)
	if err != nil {
		m.logger.Error("credential refresh failed", "error", err)
		m.setStatus(fmt.Sprintf("credential refresh failed: %v", err), true, StateRefreshFailed)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if err := m.Save(ctx, next); err != nil {
		m.logger.Warn("credential refreshed but not saved", "error", err)
		m.setStatus("credential refreshed but not saved", false, StateValid)
		return next, fmt.Errorf("%w: %w", ErrRefreshedUnsaved, err)
	}

	m.logger.Info("credential refreshed and saved")
	m.setStatus("credential refreshed", false, StateValid)
	return next, nil
}

// RefreshIfNeeded renews the current credential.
//
// It returns ErrNoCredential when there is nothing to renew; the other
// results are those of Renew.
func (m *Manager) RefreshIfNeeded(ctx context.Context) (*qqmusic.Credential, error) {
	return m.Renew(ctx, m.Get(ctx))
}

// Validate loads the stored credential at startup and records whether it is
// usable. It returns the credential only when it is valid.
//
// An expired credential still becomes current, so a later Renew can refresh
// it.
func (m *Manager) Validate(ctx context.Context) *qqmusic.Credential {
	m.mu.Lock()
	m.loaded = true
	cred, err := m.store.Load(ctx)
	if err == nil {
		m.current.Store(cred)
	}
	m.mu.Unlock()

	switch {
	case errors.Is(err, ErrNoCredential):
		m.logger.Info("no stored credential, only free tracks can be downloaded")
		m.setStatus("no stored credential, only free tracks can be downloaded", true, StateAbsent)
		return nil
	case err != nil:
		m.logger.Error("failed to load credential", "error", err)
		m.setStatus("failed to load credential, only free tracks can be downloaded", true, StateAbsent)
		return nil
	}

	expired, err := m.auth.CheckExpired(ctx, cred)
	if err != nil {
		m.logger.Error("credential check failed", "error", err)
		m.setStatus(fmt.Sprintf("credential check failed: %v, downloading anonymously", err), true, StateRefreshFailed)
		return nil
	}
	if expired {
		state := StateExpiredNonRefreshable
		if ok, _ := m.auth.CanRefresh(ctx, cred); ok {
			state = StateExpiredRefreshable
		}
		m.logger.Info("stored credential expired, downloading anonymously", "state", state.String())
		m.setStatus("stored credential expired, downloading anonymously", true, state)
		return nil
	}

	m.logger.Info("logged in with stored credential")
	m.setStatus("logged in with stored credential", false, StateValid)
	return cred
}

// Status returns the latest status summary.
func (m *Manager) Status() Status {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(msg string, expired bool, state State) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.status.LastCheck = m.now()
	m.status.Message = msg
	m.status.Expired = expired
	m.status.State = state
}
