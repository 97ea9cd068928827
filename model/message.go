package model

import "time"

/*

Message is a single direct message inside a conversation

Id: primary key, use to identify a message
CreatedAt: insertion time, messages are strictly ordered by it within a
conversation

ConversationID: owning conversation, "belongs-to" relation
SenderID: user who wrote the message
Content: plain text body, bounded by MaxMessageLength at the write path
Read: whether the recipient has opened the conversation since this message
arrived; the only mutable field after creation

*/
type Message struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	ConversationID string `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SenderID       string
	Content        string
	Read           bool
}

// MaxMessageLength bounds message content after trimming, in runes.
const MaxMessageLength = 1000
