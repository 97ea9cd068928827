package live

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/log"
)

// MessageView is a message row hydrated with the sender's nickname.
type MessageView struct {
	Id             string
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
	Read           bool
	SenderNickname string
}

// ConversationView is a conversation row hydrated with the other party's
// nickname and the latest message preview for the inbox.
type ConversationView struct {
	Id                string
	User1ID           string
	User2ID           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	OtherUserNickname string
	LastMessage       string
}

// Chat keeps one selected conversation's message list live. Exactly one
// change channel is open per selected conversation; selecting another
// conversation tears the previous channel down first. In-flight nickname
// hydrations are not awaited on teardown - an epoch counter discards any
// hydration that lands after the selection changed.
type Chat struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier
	// readStatus mirrors read markers into Redis for the hot inbox lookups.
	// Optional: nil disables mirroring.
	readStatus *utils.RedisStatusStore

	mu        sync.RWMutex
	messages  []*MessageView
	currentId string
	epoch     int
	cancel    context.CancelFunc
}

func NewChat(s *store.Store, sess *session.Manager, n notify.Notifier, readStatus *utils.RedisStatusStore) *Chat {
	return &Chat{store: s, session: sess, notifier: n, readStatus: readStatus}
}

// ResolveConversation returns the id of the conversation between selfId and
// otherId, creating it on first contact.
func (c *Chat) ResolveConversation(selfId string, otherId string) (string, error) {
	return ResolveConversation(c.store, selfId, otherId)
}

// ResolveConversation looks up the conversation for an unordered participant
// pair, checking both orderings, and lazily creates it on miss. A lost
// create race surfaces as ErrConversationExists from the store and is
// resolved by re-running the lookup, so two concurrent first contacts
// converge on a single shared conversation id.
func ResolveConversation(s *store.Store, selfId string, otherId string) (string, error) {
	if selfId == "" || otherId == "" {
		return "", validationErrorf("both participant ids are required")
	}
	if selfId == otherId {
		return "", validationErrorf("cannot start a conversation with yourself")
	}

	conv, err := s.FindConversationByPair(selfId, otherId)
	if err == nil {
		return conv.Id, nil
	}
	if !store.IsRecordNotFound(err) {
		return "", err
	}

	created, err := s.CreateConversation(selfId, otherId)
	if err == store.ErrConversationExists {
		conv, err := s.FindConversationByPair(selfId, otherId)
		if err != nil {
			return "", err
		}
		return conv.Id, nil
	}
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// LoadHistory fetches the full message history of a conversation in
// creation-time order, hydrated with sender nicknames in one batch.
func (c *Chat) LoadHistory(conversationId string) ([]*MessageView, error) {
	msgs, err := c.store.ListMessages(conversationId)
	if err != nil {
		return nil, err
	}

	senderIds := make([]string, 0, len(msgs))
	for _, m := range msgs {
		senderIds = append(senderIds, m.SenderID)
	}
	nicknames, err := c.store.NicknamesByIds(utils.DistinctStrings(senderIds))
	if err != nil {
		return nil, err
	}

	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, &MessageView{
			Id:             m.Id,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			Read:           m.Read,
			SenderNickname: nicknames[m.SenderID],
		})
	}
	return views, nil
}

// Send validates and inserts a message. It deliberately does not append to
// the local list: the insert event comes back through the open subscription
// and the sender sees their message through the same path as the recipient.
func (c *Chat) Send(conversationId string, content string) error {
	userId, err := c.session.CurrentId()
	if err != nil {
		c.notifier.Error("Please sign in to send messages.")
		return err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return validationErrorf("message must not be empty")
	}
	if len([]rune(content)) > model.MaxMessageLength {
		return validationErrorf("message exceeds %d characters", model.MaxMessageLength)
	}

	if _, err := c.store.CreateMessage(conversationId, userId, content); err != nil {
		c.notifier.Error("Failed to send message. Please try again.")
		return networkError("send message", err)
	}
	return nil
}

// Select makes conversationId the live conversation: tears down the previous
// channel, loads history and opens a new insert-only subscription scoped to
// this conversation. The subscription lives until the next Select, Close, or
// ctx cancellation.
func (c *Chat) Select(ctx context.Context, conversationId string) error {
	subCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.currentId = conversationId
	c.epoch++
	epoch := c.epoch
	c.messages = nil
	c.mu.Unlock()

	ch := c.store.Broker.Subscribe(subCtx, model.TableMessages,
		[]model.ChangeType{model.ChangeTypeInsert},
		func(e *model.ChangeEvent) bool {
			m, ok := e.Row.(*model.Message)
			return ok && m.ConversationID == conversationId
		})

	history, err := c.LoadHistory(conversationId)
	if err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	// Select may have been called again while history was loading.
	if c.epoch == epoch {
		c.messages = history
	}
	c.mu.Unlock()

	go c.consume(subCtx, ch, epoch)
	return nil
}

// consume appends pushed messages to the live list. The nickname lookup is a
// suspension point, so by the time a hydration completes the user may have
// switched conversations; the epoch check throws such stale results away.
func (c *Chat) consume(ctx context.Context, ch <-chan *model.ChangeEvent, epoch int) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			msg, ok := e.Row.(*model.Message)
			if !ok {
				continue
			}

			nicknames, err := c.store.NicknamesByIds([]string{msg.SenderID})
			if err != nil {
				log.Log.Error("fail to hydrate message sender: ", err)
				continue
			}

			view := &MessageView{
				Id:             msg.Id,
				ConversationID: msg.ConversationID,
				SenderID:       msg.SenderID,
				Content:        msg.Content,
				CreatedAt:      msg.CreatedAt,
				Read:           msg.Read,
				SenderNickname: nicknames[msg.SenderID],
			}

			c.mu.Lock()
			if c.epoch == epoch && !c.hasMessageLocked(view.Id) {
				c.messages = append(c.messages, view)
			}
			c.mu.Unlock()
		}
	}
}

// hasMessageLocked reports whether id is already in the live list. The
// subscription opens before the history load, so a message committed in
// that window arrives through both paths; the id check keeps it single.
func (c *Chat) hasMessageLocked(id string) bool {
	for _, m := range c.messages {
		if m.Id == id {
			return true
		}
	}
	return false
}

// Messages returns the live conversation's current message list.
func (c *Chat) Messages() []*MessageView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*MessageView, len(c.messages))
	copy(out, c.messages)
	return out
}

// CurrentConversationId returns the id of the selected conversation, or "".
func (c *Chat) CurrentConversationId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentId
}

// Close tears down the live subscription, if any.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.currentId = ""
	c.epoch++
}

// Conversations lists the current user's conversations, most recently
// active first, hydrated with the other party's nickname and last message.
func (c *Chat) Conversations() ([]*ConversationView, error) {
	userId, err := c.session.CurrentId()
	if err != nil {
		return nil, err
	}

	convs, err := c.store.ListConversationsForUser(userId)
	if err != nil {
		return nil, err
	}

	otherIds := make([]string, 0, len(convs))
	for _, conv := range convs {
		otherIds = append(otherIds, otherParty(conv, userId))
	}
	nicknames, err := c.store.NicknamesByIds(utils.DistinctStrings(otherIds))
	if err != nil {
		return nil, err
	}

	views := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := &ConversationView{
			Id:                conv.Id,
			User1ID:           conv.User1ID,
			User2ID:           conv.User2ID,
			CreatedAt:         conv.CreatedAt,
			UpdatedAt:         conv.UpdatedAt,
			OtherUserNickname: nicknames[otherParty(conv, userId)],
		}
		last, err := c.store.LastMessage(conv.Id)
		if err != nil {
			return nil, err
		}
		if last != nil {
			view.LastMessage = last.Content
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkConversationRead flips the durable read flag on the other party's
// messages, mirrors the markers into Redis and patches the local list.
func (c *Chat) MarkConversationRead(conversationId string) error {
	userId, err := c.session.CurrentId()
	if err != nil {
		return err
	}

	ids, err := c.store.MarkMessagesRead(conversationId, userId)
	if err != nil {
		c.notifier.Error("Failed to update read state.")
		return networkError("mark conversation read", err)
	}

	if c.readStatus != nil && len(ids) > 0 {
		if err := c.readStatus.SetItemsReadStatus(ids, userId, true); err != nil {
			// Redis is a cache of the durable flag, a miss here only costs a
			// slower inbox read.
			log.Log.Warn("fail to mirror read markers to redis: ", err)
		}
	}

	marked := map[string]bool{}
	for _, id := range ids {
		marked[id] = true
	}
	c.mu.Lock()
	for _, m := range c.messages {
		if marked[m.Id] {
			m.Read = true
		}
	}
	c.mu.Unlock()
	return nil
}

func otherParty(conv *model.Conversation, userId string) string {
	if conv.User1ID == userId {
		return conv.User2ID
	}
	return conv.User1ID
}
