package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"gorm.io/gorm"
)

// FindConversationByPair looks up the conversation between two users,
// checking both participant orderings. Returns gorm.ErrRecordNotFound when
// the pair has never talked.
func (s *Store) FindConversationByPair(userA string, userB string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.DB.
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
			userA, userB, userB, userA).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation inserts the pairing record and publishes its insert
// event. A unique-violation from the pair index is reported as
// ErrConversationExists so the caller can re-run the lookup instead of
// surfacing a duplicate.
func (s *Store) CreateConversation(userA string, userB string) (*model.Conversation, error) {
	conv := &model.Conversation{
		Id:      uuid.New().String(),
		User1ID: userA,
		User2ID: userB,
	}
	if err := s.DB.Create(conv).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConversationExists
		}
		return nil, errors.Wrap(err, "fail to create conversation")
	}

	s.publish(model.TableConversations, model.ChangeTypeInsert, conv)
	return conv, nil
}

// ErrConversationExists is returned when a concurrent create for the same
// participant pair won the race. The caller should retry the lookup.
var ErrConversationExists = errors.New("conversation already exists for this pair")

// isUniqueViolation matches the postgres unique_violation error (SQLSTATE
// 23505) without depending on the driver's error types directly.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

// ListConversationsForUser returns the user's conversations, most recently
// active first.
func (s *Store) ListConversationsForUser(userId string) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := s.DB.
		Where("user1_id = ? OR user2_id = ?", userId, userId).
		Order("updated_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list conversations")
	}
	return convs, nil
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.DB.Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListMessages returns every message of a conversation ordered by creation
// time ascending. Conversations are small, the history is materialized fully
// with no pagination.
func (s *Store) ListMessages(conversationId string) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.DB.
		Where("conversation_id = ?", conversationId).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list messages")
	}
	return msgs, nil
}

// LastMessage returns the newest message of a conversation, or nil when the
// conversation is empty.
func (s *Store) LastMessage(conversationId string) (*model.Message, error) {
	var msg model.Message
	err := s.DB.
		Where("conversation_id = ?", conversationId).
		Order("created_at desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to load last message")
	}
	return &msg, nil
}

// CreateMessage inserts a message, bumps the owning conversation's activity
// timestamp and publishes the insert event. The publish is what delivers the
// message back to the sender's own view - there is no local append anywhere.
func (s *Store) CreateMessage(conversationId string, senderId string, content string) (*model.Message, error) {
	msg := &model.Message{
		Id:             uuid.New().String(),
		ConversationID: conversationId,
		SenderID:       senderId,
		Content:        content,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conversationId).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to create message")
	}

	s.publish(model.TableMessages, model.ChangeTypeInsert, msg)
	return msg, nil
}

// MarkMessagesRead flips the durable read flag on every message of the
// conversation that was not sent by readerId, and returns the ids that were
// affected so the caller can mirror them into the hot status store.
func (s *Store) MarkMessagesRead(conversationId string, readerId string) ([]string, error) {
	var msgs []*model.Message
	err := s.DB.
		Select("id").
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationId, readerId, false).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to find unread messages")
	}
	if len(msgs) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.Id)
	}

	err = s.DB.Model(&model.Message{}).
		Where("id IN ?", ids).
		Update("read", true).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to mark messages read")
	}
	return ids, nil
}
