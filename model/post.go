package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Post is a piece of content on the campus feed

Id: primary key, use to identify a post
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

AuthorID: user who published the post, "belongs-to" relation
Content: post body in plain text
MediaUrl: optional public url of an attached image or video

LikesCount: denormalized count of PostLike rows, kept eventually consistent
with the join table by the write path
CommentsCount: denormalized count of Comment rows, same policy

*/
type Post struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	AuthorID      string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Content       string
	MediaUrl      string
	LikesCount    int
	CommentsCount int
}

/*

PostLike is a "many-to-many" relation of user likes a post

Its presence or absence is the source of truth for "has this user liked
this post"; Post.LikesCount is only a denormalized projection of it.

PostID: post id
UserID: user id
CreatedAt: time when relation is created

*/
type PostLike struct {
	PostID    string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}

/*

Comment is a user comment under a feed post

*/
type Comment struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	PostID    string `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID  string
	Content   string
}
