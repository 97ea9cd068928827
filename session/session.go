// Package session holds the current authenticated identity. Manager is an
// explicitly constructed, explicitly torn-down object passed by reference to
// the components that need identity, never ambient global state.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/unihive/unihive/auth"
	"github.com/unihive/unihive/model"
)

// ErrNotAuthenticated is returned by mutations attempted with no session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Manager mirrors the auth service's state stream into a reactive current
// identity. The stream subscription lives from construction until Close.
type Manager struct {
	auth   *auth.Service
	cancel context.CancelFunc

	mu      sync.RWMutex
	current *model.User
}

// NewManager constructs a session manager and starts following the auth
// state stream.
func NewManager(a *auth.Service) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{auth: a, cancel: cancel}

	changes := a.SubscribeStateChanges(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change := <-changes:
				m.mu.Lock()
				m.current = change.User
				m.mu.Unlock()
			}
		}
	}()

	return m
}

// Current returns the present identity, or nil when signed out.
func (m *Manager) Current() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentId returns the present identity's id, or ErrNotAuthenticated.
func (m *Manager) CurrentId() (string, error) {
	if u := m.Current(); u != nil {
		return u.Id, nil
	}
	return "", ErrNotAuthenticated
}

// Login signs in. The identity becomes visible through Current via the state
// stream, and is also set synchronously so a caller can read it immediately
// after a successful return.
func (m *Manager) Login(email string, password string) error {
	user, err := m.auth.Login(email, password)
	if err != nil {
		return err
	}
	m.setCurrent(user)
	return nil
}

// Signup registers and signs in.
func (m *Manager) Signup(email string, password string, nickname string) error {
	user, err := m.auth.Signup(email, password, nickname)
	if err != nil {
		return err
	}
	m.setCurrent(user)
	return nil
}

// Logout clears the local identity unconditionally, then announces the
// sign-out. Even if the remote side misbehaved the local session is gone.
func (m *Manager) Logout() {
	m.setCurrent(nil)
	m.auth.Logout()
}

// Close tears down the state stream subscription.
func (m *Manager) Close() {
	m.cancel()
}

func (m *Manager) setCurrent(u *model.User) {
	m.mu.Lock()
	m.current = u
	m.mu.Unlock()
}
