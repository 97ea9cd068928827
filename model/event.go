package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Event is a campus event listing

Id: primary key, use to identify an event
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Title: event headline
Description: full event text
Date: when the event takes place, listings are ordered by it ascending
Location: free-form venue text
Campus: optional campus name for multi-campus schools
OrganizerID: user who posted the event

*/
type Event struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Title       string
	Description string
	Date        time.Time
	Location    string
	Campus      string
	OrganizerID string
}
