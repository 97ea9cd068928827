package model

import "time"

/*

ProfileLike is a directed "user liked a profile" relation from the connect
page. A mutual pair of rows (A likes B and B likes A) constitutes a match;
matches are derived from this table, never stored separately.

LikerID: user who swiped like
LikedID: profile that was liked
CreatedAt: time when relation is created

*/
type ProfileLike struct {
	LikerID   string `gorm:"primaryKey"`
	LikedID   string `gorm:"primaryKey"`
	CreatedAt time.Time
}
