package model

import "time"

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

/*

Story is an ephemeral photo visible for StoryTTL after posting

Id: primary key, use to identify a story
CreatedAt: time when entity is created

OwnerID: user who posted the story, only they may delete it
ImageKey: blob store key of the uploaded photo
ImageUrl: stable public url resolved from ImageKey at upload time
ExpiresAt: CreatedAt + StoryTTL. Expiry is a query-time filter only, there
is no background purge; an expired row simply stops matching reads.

*/
type Story struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	OwnerID   string
	ImageKey  string
	ImageUrl  string
	ExpiresAt time.Time
}
