package model

import (
	"time"

	"gorm.io/gorm"
)

// HustleCategory classifies a gig board listing.
type HustleCategory string

const (
	HustleCategoryJob        HustleCategory = "job"
	HustleCategoryInternship HustleCategory = "internship"
	HustleCategoryProject    HustleCategory = "project"
	HustleCategoryTutoring   HustleCategory = "tutoring"
	HustleCategoryOther      HustleCategory = "other"
)

var AllHustleCategory = []HustleCategory{
	HustleCategoryJob,
	HustleCategoryInternship,
	HustleCategoryProject,
	HustleCategoryTutoring,
	HustleCategoryOther,
}

func (e HustleCategory) IsValid() bool {
	switch e {
	case HustleCategoryJob, HustleCategoryInternship, HustleCategoryProject,
		HustleCategoryTutoring, HustleCategoryOther:
		return true
	}
	return false
}

func (e HustleCategory) String() string {
	return string(e)
}

/*

Hustle is a gig board listing (side job, internship, project, tutoring)

Id: primary key, use to identify a hustle
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Title: short listing headline
Description: full listing text
Category: one of AllHustleCategory
PostedByID: user who posted the listing
ContactEmail: optional address to reach the poster outside the app

*/
type Hustle struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	Title        string
	Description  string
	Category     HustleCategory
	PostedByID   string
	ContactEmail string
}
