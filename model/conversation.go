package model

import "time"

/*

Conversation is the durable pairing record under which direct messages
between two users are grouped

Id: primary key, use to identify a conversation
CreatedAt: time when entity is created
UpdatedAt: bumped whenever a message arrives, used to order the inbox

User1ID: first participant, the user who initiated the first contact
User2ID: second participant

There is at most one conversation per unordered participant pair. The pair
uniqueness is enforced by a storage level expression index created in
DatabaseSetupAndMigration:

	CREATE UNIQUE INDEX idx_conversation_pair
	ON conversations (LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id))

which closes the create-create race between two concurrent first contacts.

*/
type Conversation struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	User1ID   string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User2ID   string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
