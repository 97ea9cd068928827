package live

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/auth"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/realtime"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/dotenv"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

type testEnv struct {
	store    *store.Store
	session  *session.Manager
	notifier *notify.Recorder
}

// newTestEnv wires a store on a temp database, an auth service and a session
// manager, and signs up a first user so mutations have an identity.
func newTestEnv(t *testing.T) *testEnv {
	db, _ := utils.CreateTempDB(t)
	broker := realtime.NewBroker()
	s := store.NewStore(db, broker)

	sess := session.NewManager(auth.NewService(s))
	t.Cleanup(sess.Close)
	assert.Nil(t, sess.Signup("self@campus.edu", "password", "self"))

	return &testEnv{
		store:    s,
		session:  sess,
		notifier: &notify.Recorder{},
	}
}

func (e *testEnv) selfId(t *testing.T) string {
	id, err := e.session.CurrentId()
	assert.Nil(t, err)
	return id
}

// createUser inserts a bare user row directly, for participants other than
// the signed-in one.
func (e *testEnv) createUser(t *testing.T, nickname string) string {
	user := &model.User{
		Id:       uuid.New().String(),
		Email:    nickname + "@campus.edu",
		Nickname: nickname,
	}
	assert.Nil(t, e.store.CreateUser(user))
	return user.Id
}
