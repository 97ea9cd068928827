package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

User is a data model for a registered student account

Id: primary key, use to identify a user
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Email: sign-in identifier, unique across live accounts
PasswordHash: bcrypt hash of the sign-in password, never serialized
Nickname: public display name shown on posts, messages and profiles
Bio: short free-form self description shown on the connect page
Tags: interest tags as a JSON array of strings, used for profile matching

*/
type User struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	Nickname     string
	Bio          string
	Tags         datatypes.JSON
}
