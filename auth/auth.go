// Package auth provides email/password authentication, session tokens and a
// subscribable auth-state stream.
package auth

import (
	"context"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	tokenLifetime     = 30 * 24 * time.Hour
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// StateChange is pushed to auth-state subscribers on every sign-in and
// sign-out. User is nil on sign-out.
type StateChange struct {
	User *model.User
}

// listener pairs a state-change channel with its subscriber ctx's done
// channel so delivery can never outlive the subscriber.
type listener struct {
	ch   chan *StateChange
	done <-chan struct{}
}

// Service authenticates users against the store and notifies subscribers of
// state changes. The listener registry follows the same channel-map shape as
// the realtime broker.
type Service struct {
	store  *store.Store
	secret []byte

	mu        sync.RWMutex
	listeners map[string]*listener
}

func NewService(s *store.Store) *Service {
	return &Service{
		store:     s,
		secret:    []byte(os.Getenv("JWT_SECRET")),
		listeners: make(map[string]*listener),
	}
}

// Signup registers a new account. Fails with ErrInvalidEmail,
// ErrWeakPassword or ErrEmailInUse; any other failure is a backend error.
func (a *Service) Signup(email string, password string, nickname string) (*model.User, error) {
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := a.store.GetUserByEmail(email); err == nil {
		return nil, ErrEmailInUse
	} else if !store.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, "fail to check existing email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "fail to hash password")
	}

	user := &model.User{
		Id:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     nickname,
	}
	if err := a.store.CreateUser(user); err != nil {
		return nil, err
	}

	a.notify(&StateChange{User: user})
	return user, nil
}

// Login verifies the credentials. Any mismatch, including an unknown email,
// fails with ErrInvalidCredentials so the response doesn't reveal whether
// the account exists.
func (a *Service) Login(email string, password string) (*model.User, error) {
	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		if store.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "fail to look up user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	a.notify(&StateChange{User: user})
	return user, nil
}

// Logout announces the sign-out to state subscribers. It cannot fail.
func (a *Service) Logout() {
	a.notify(&StateChange{User: nil})
}

// SubscribeStateChanges opens a channel of auth-state changes, torn down
// when ctx is cancelled.
func (a *Service) SubscribeStateChanges(ctx context.Context) <-chan *StateChange {
	id := "auth_state_" + uuid.New().String()
	l := &listener{
		ch:   make(chan *StateChange, 1),
		done: ctx.Done(),
	}

	a.mu.Lock()
	a.listeners[id] = l
	a.mu.Unlock()

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}()

	return l.ch
}

func (a *Service) notify(change *StateChange) {
	// Send outside the lock and select on each subscriber's done channel: a
	// listener cancelled with a full buffer must not stall sign-in for
	// everyone else.
	a.mu.RLock()
	listeners := make([]*listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.RUnlock()

	for _, l := range listeners {
		select {
		case l.ch <- change:
		case <-l.done:
		}
	}
}

// IssueToken creates a signed session token for the user.
func (a *Service) IssueToken(userId string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "fail to sign token")
	}
	return signed, nil
}

// ParseToken validates a session token and returns the user id it carries.
func (a *Service) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", errors.Wrap(err, "invalid token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token carries no subject")
	}
	return claims.Subject, nil
}
