package live

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/notify"
)

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestResolveConversationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	first, err := ResolveConversation(env.store, self, other)
	assert.Nil(t, err)
	assert.NotEmpty(t, first)

	// Same pair again, and in the reversed order, must return the same id.
	second, err := ResolveConversation(env.store, self, other)
	assert.Nil(t, err)
	assert.Equal(t, first, second)

	reversed, err := ResolveConversation(env.store, other, self)
	assert.Nil(t, err)
	assert.Equal(t, first, reversed)
}

func TestResolveConversationValidation(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)

	_, err := ResolveConversation(env.store, self, self)
	assert.True(t, IsValidationError(err))

	_, err = ResolveConversation(env.store, self, "")
	assert.True(t, IsValidationError(err))
}

func TestResolveConversationConcurrentFirstContact(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	const racers = 8
	ids := make([]string, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := ResolveConversation(env.store, self, other)
			assert.Nil(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestChatSendAppearsOnceInOrder(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()

	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	assert.Nil(t, chat.Select(context.Background(), convId))
	assert.Equal(t, convId, chat.CurrentConversationId())
	assert.Empty(t, chat.Messages())

	// The send path never appends locally, the message arrives exclusively
	// through the subscription.
	for i := 0; i < 5; i++ {
		assert.Nil(t, chat.Send(convId, fmt.Sprintf("message %d", i)))
	}

	waitFor(t, func() bool { return len(chat.Messages()) == 5 })
	msgs := chat.Messages()
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		assert.Equal(t, self, m.SenderID)
		assert.Equal(t, "self", m.SenderNickname)
	}
}

func TestChatSendValidation(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()
	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	assert.True(t, IsValidationError(chat.Send(convId, "   ")))

	long := make([]rune, model.MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.True(t, IsValidationError(chat.Send(convId, string(long))))

	// A message at exactly the limit goes through.
	assert.Nil(t, chat.Send(convId, string(long[:model.MaxMessageLength])))
}

func TestChatSelectDropsPreviousConversation(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()

	withAlice, err := chat.ResolveConversation(self, alice)
	assert.Nil(t, err)
	withBob, err := chat.ResolveConversation(self, bob)
	assert.Nil(t, err)

	assert.Nil(t, chat.Select(context.Background(), withAlice))
	assert.Nil(t, chat.Send(withAlice, "to alice"))
	waitFor(t, func() bool { return len(chat.Messages()) == 1 })

	assert.Nil(t, chat.Select(context.Background(), withBob))
	assert.Empty(t, chat.Messages())

	// A message in the abandoned conversation must never surface in the new
	// one, while the new conversation's traffic flows.
	assert.Nil(t, chat.Send(withAlice, "late to alice"))
	assert.Nil(t, chat.Send(withBob, "to bob"))

	waitFor(t, func() bool { return len(chat.Messages()) == 1 })
	time.Sleep(100 * time.Millisecond)
	msgs := chat.Messages()
	assert.Equal(t, 1, len(msgs))
	assert.Equal(t, "to bob", msgs[0].Content)
}

func TestChatSelectLoadsHistory(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()
	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	_, err = env.store.CreateMessage(convId, other, "hi")
	assert.Nil(t, err)
	_, err = env.store.CreateMessage(convId, self, "hello")
	assert.Nil(t, err)

	assert.Nil(t, chat.Select(context.Background(), convId))
	msgs := chat.Messages()
	assert.Equal(t, 2, len(msgs))
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "other", msgs[0].SenderNickname)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestChatHistoryAndPushOverlapStaysSingle(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()
	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	msg, err := env.store.CreateMessage(convId, other, "hello")
	assert.Nil(t, err)

	assert.Nil(t, chat.Select(context.Background(), convId))
	assert.Equal(t, 1, len(chat.Messages()))

	// A message committed between the subscription opening and the history
	// load arrives through both paths: inside the snapshot and over the
	// channel. Replay its insert event to recreate the overlap; the list
	// must keep it single.
	env.store.Broker.Publish(&model.ChangeEvent{
		Table: model.TableMessages,
		Event: model.ChangeTypeInsert,
		Row:   msg,
	})
	assert.Nil(t, chat.Send(convId, "next"))

	waitFor(t, func() bool { return len(chat.Messages()) == 2 })
	time.Sleep(100 * time.Millisecond)
	msgs := chat.Messages()
	assert.Equal(t, 2, len(msgs))
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "next", msgs[1].Content)
}

func TestChatConversationsInbox(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()

	withAlice, err := chat.ResolveConversation(self, alice)
	assert.Nil(t, err)
	withBob, err := chat.ResolveConversation(self, bob)
	assert.Nil(t, err)

	assert.Nil(t, chat.Send(withAlice, "hey alice"))
	assert.Nil(t, chat.Send(withBob, "hey bob"))

	convs, err := chat.Conversations()
	assert.Nil(t, err)
	assert.Equal(t, 2, len(convs))
	// Most recently active first.
	assert.Equal(t, withBob, convs[0].Id)
	assert.Equal(t, "bob", convs[0].OtherUserNickname)
	assert.Equal(t, "hey bob", convs[0].LastMessage)
	assert.Equal(t, withAlice, convs[1].Id)
	assert.Equal(t, "hey alice", convs[1].LastMessage)
}

func TestChatMarkConversationRead(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	chat := NewChat(env.store, env.session, env.notifier, nil)
	defer chat.Close()
	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	_, err = env.store.CreateMessage(convId, other, "unread one")
	assert.Nil(t, err)
	_, err = env.store.CreateMessage(convId, other, "unread two")
	assert.Nil(t, err)
	// Own messages are not read targets.
	_, err = env.store.CreateMessage(convId, self, "mine")
	assert.Nil(t, err)

	assert.Nil(t, chat.Select(context.Background(), convId))
	assert.Nil(t, chat.MarkConversationRead(convId))

	msgs := chat.Messages()
	assert.Equal(t, 3, len(msgs))
	assert.True(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)

	// The durable flag is set too.
	stored, err := env.store.ListMessages(convId)
	assert.Nil(t, err)
	assert.True(t, stored[0].Read)
	assert.True(t, stored[1].Read)
	assert.False(t, stored[2].Read)
}

func TestChatSendRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	other := env.createUser(t, "other")

	rec := &notify.Recorder{}
	chat := NewChat(env.store, env.session, rec, nil)
	defer chat.Close()
	convId, err := chat.ResolveConversation(self, other)
	assert.Nil(t, err)

	env.session.Logout()
	assert.NotNil(t, chat.Send(convId, "hello"))
	assert.Equal(t, 1, len(rec.Errors))
}
