// Package session is the auth context: who is signed in, with which token,
// and whether a staff member is currently viewing the app as a student.
// The Manager is the only reader and writer of the session storage keys.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/storage"
)

// Session storage keys
const (
	KeyToken      = "token"
	KeyUser       = "user"
	KeyStaffUser  = "staffUser"
	KeyStaffToken = "staffToken"
)

// User is the signed-in identity
type User = api.User

// Errors returned by the manager
var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotStaff         = errors.New("only staff can view the app as a student")
	ErrNotImpersonating = errors.New("not viewing as a student")
)

// Authenticator issues tokens
type Authenticator interface {
	Login(ctx context.Context, userType api.UserType, c api.Credentials) (api.LoginResponse, error)
	ViewAsStudent(ctx context.Context, studentID string) (api.LoginResponse, error)
}

// UnauthorizedNotifier is the gateway's 401 broadcast
type UnauthorizedNotifier interface {
	OnUnauthorized(fn func()) (unsubscribe func())
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithClock overrides time.Now for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the session. It is safe for concurrent use and doubles as
// the gateway's apiclient.TokenSource.
type Manager struct {
	store  storage.Store
	auth   Authenticator
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	token      string
	user       *User
	staffToken string
	staffUser  *User

	subMu   sync.Mutex
	expired []func()
}

// NewManager restores any session held in store
func NewManager(ctx context.Context, store storage.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.restore(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Attach wires the manager to the login endpoints and to the gateway's
// 401 broadcast. Call it once after the gateway is built.
func (m *Manager) Attach(auth Authenticator, gw UnauthorizedNotifier) {
	m.auth = auth
	if gw != nil {
		gw.OnUnauthorized(m.HandleUnauthorized)
	}
}

func (m *Manager) restore(ctx context.Context) error {
	token, err := m.store.Get(ctx, KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}

	var user User
	if err := storage.GetJSON(ctx, m.store, KeyUser, &user); err != nil {
		// A token without a readable user is unusable; start signed out.
		m.logger.Warn("Discarding session without user", zap.Error(err))
		return m.store.Delete(ctx, KeyToken, KeyUser, KeyStaffUser, KeyStaffToken)
	}

	m.token, m.user = token, &user

	if staffToken, err := m.store.Get(ctx, KeyStaffToken); err == nil {
		var staff User
		if err := storage.GetJSON(ctx, m.store, KeyStaffUser, &staff); err == nil {
			m.staffToken, m.staffUser = staffToken, &staff
		}
	}
	return nil
}

// Token returns the bearer token for outgoing requests
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Current returns the signed-in user
func (m *Manager) Current() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// IsAuthenticated reports a present, unexpired token
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	return token != "" && !Expired(token, m.now())
}

// IsImpersonating reports whether a staff member is viewing as a student
func (m *Manager) IsImpersonating() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.staffUser != nil
}

// StaffUser returns the staff identity saved while viewing as a student
func (m *Manager) StaffUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.staffUser == nil {
		return User{}, false
	}
	return *m.staffUser, true
}

// Login signs in through the endpoint for userType and stores the session
func (m *Manager) Login(ctx context.Context, userType api.UserType, c api.Credentials) (User, error) {
	if m.auth == nil {
		return User{}, errors.New("session manager has no authenticator")
	}
	resp, err := m.auth.Login(ctx, userType, c)
	if err != nil {
		return User{}, err
	}
	if resp.Token == "" {
		return User{}, errors.New("login response carried no token")
	}
	if resp.User.UserType == "" {
		resp.User.UserType = userType
	}

	// A fresh login replaces any impersonation in progress.
	if err := m.store.Delete(ctx, KeyStaffUser, KeyStaffToken); err != nil {
		return User{}, err
	}
	if err := m.save(ctx, resp.Token, resp.User); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	m.token, m.user = resp.Token, &resp.User
	m.staffToken, m.staffUser = "", nil
	m.mu.Unlock()

	m.logger.Info("Signed in",
		zap.String("user_id", resp.User.ID),
		zap.String("user_type", string(resp.User.UserType)),
	)
	return resp.User, nil
}

// Logout clears every session key
func (m *Manager) Logout(ctx context.Context) error {
	m.clearMemory()
	if err := m.store.Delete(ctx, KeyToken, KeyUser, KeyStaffUser, KeyStaffToken); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	m.logger.Info("Signed out")
	return nil
}

// ViewAsStudent swaps the staff session for a student token, keeping the
// staff identity so ReturnToStaff can restore it.
func (m *Manager) ViewAsStudent(ctx context.Context, studentID string) (User, error) {
	current, ok := m.Current()
	if !ok {
		return User{}, ErrNotAuthenticated
	}
	if !current.IsStaff() || m.IsImpersonating() {
		return User{}, ErrNotStaff
	}
	if m.auth == nil {
		return User{}, errors.New("session manager has no authenticator")
	}

	resp, err := m.auth.ViewAsStudent(ctx, studentID)
	if err != nil {
		return User{}, err
	}
	if resp.User.UserType == "" {
		resp.User.UserType = api.UserStudent
	}
	if resp.User.StudentID == "" {
		resp.User.StudentID = studentID
	}

	staffToken := m.Token()
	if err := m.store.Set(ctx, KeyStaffToken, staffToken); err != nil {
		return User{}, err
	}
	if err := storage.SetJSON(ctx, m.store, KeyStaffUser, current); err != nil {
		return User{}, err
	}
	if err := m.save(ctx, resp.Token, resp.User); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	m.staffToken, m.staffUser = staffToken, &current
	m.token, m.user = resp.Token, &resp.User
	m.mu.Unlock()

	m.logger.Info("Viewing as student",
		zap.String("staff_id", current.ID),
		zap.String("student_id", studentID),
	)
	return resp.User, nil
}

// ReturnToStaff restores the staff session saved by ViewAsStudent
func (m *Manager) ReturnToStaff(ctx context.Context) (User, error) {
	m.mu.RLock()
	staff, staffToken := m.staffUser, m.staffToken
	m.mu.RUnlock()
	if staff == nil {
		return User{}, ErrNotImpersonating
	}

	if err := m.save(ctx, staffToken, *staff); err != nil {
		return User{}, err
	}
	if err := m.store.Delete(ctx, KeyStaffUser, KeyStaffToken); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	m.token, m.user = staffToken, staff
	m.staffToken, m.staffUser = "", nil
	m.mu.Unlock()

	return *staff, nil
}

// OnExpired registers fn to run after the session is cleared by a 401
func (m *Manager) OnExpired(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.expired = append(m.expired, fn)
}

// HandleUnauthorized clears the session and notifies OnExpired subscribers.
// It is registered with the gateway by Attach.
func (m *Manager) HandleUnauthorized() {
	m.clearMemory()
	if err := m.store.Delete(context.Background(), KeyToken, KeyUser, KeyStaffUser, KeyStaffToken); err != nil {
		m.logger.Error("Failed to clear expired session", zap.Error(err))
	}
	m.logger.Warn("Session expired")

	m.subMu.Lock()
	subs := append([]func(){}, m.expired...)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (m *Manager) save(ctx context.Context, token string, user User) error {
	if err := m.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := storage.SetJSON(ctx, m.store, KeyUser, user); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (m *Manager) clearMemory() {
	m.mu.Lock()
	m.token, m.user = "", nil
	m.staffToken, m.staffUser = "", nil
	m.mu.Unlock()
}
