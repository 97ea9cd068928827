package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Confession is an anonymous-capable post on the confessions board

Id: primary key, use to identify a confession
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

AuthorID: user who posted, nil when the confession is anonymous. For an
anonymous confession no author reference is stored at all, so the identity
cannot leak through any read path.
Content: confession body in plain text
IsAnonymous: whether the author chose to hide their identity
Upvotes: denormalized count of ConfessionUpvote rows

*/
type Confession struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	AuthorID    *string
	Content     string
	IsAnonymous bool
	Upvotes     int
}

/*

ConfessionUpvote is a "many-to-many" relation of user upvotes a confession

At most one row per (user, confession); Confession.Upvotes is the
denormalized projection.

*/
type ConfessionUpvote struct {
	ConfessionID string `gorm:"primaryKey"`
	UserID       string `gorm:"primaryKey"`
	CreatedAt    time.Time
}
