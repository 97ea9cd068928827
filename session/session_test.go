package session

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/auth"
	"github.com/unihive/unihive/realtime"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/dotenv"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func newTestManager(t *testing.T) *Manager {
	db, _ := utils.CreateTempDB(t)
	m := NewManager(auth.NewService(store.NewStore(db, realtime.NewBroker())))
	t.Cleanup(m.Close)
	return m
}

func TestSessionLifecycle(t *testing.T) {
	m := newTestManager(t)

	assert.Nil(t, m.Current())
	_, err := m.CurrentId()
	assert.Equal(t, ErrNotAuthenticated, err)

	// The identity is readable immediately after a successful signup.
	assert.Nil(t, m.Signup("student@campus.edu", "password", "student"))
	user := m.Current()
	assert.NotNil(t, user)
	assert.Equal(t, "student", user.Nickname)

	id, err := m.CurrentId()
	assert.Nil(t, err)
	assert.Equal(t, user.Id, id)

	m.Logout()
	assert.Nil(t, m.Current())

	assert.Nil(t, m.Login("student@campus.edu", "password"))
	assert.NotNil(t, m.Current())
}

func TestFailedLoginLeavesSessionUntouched(t *testing.T) {
	m := newTestManager(t)
	assert.Nil(t, m.Signup("student@campus.edu", "password", "student"))

	assert.NotNil(t, m.Login("student@campus.edu", "wrong"))
	// Still signed in as the original identity.
	assert.NotNil(t, m.Current())
	assert.Equal(t, "student", m.Current().Nickname)
}

func TestLogoutIsLocalFirst(t *testing.T) {
	m := newTestManager(t)
	assert.Nil(t, m.Signup("student@campus.edu", "password", "student"))

	m.Logout()
	_, err := m.CurrentId()
	assert.Equal(t, ErrNotAuthenticated, err)
}
