package models

import "time"

type Candidate struct {
	ID            uint   `gorm:"primaryKey"`
	FullName      string `gorm:"type:varchar(255); not null"`
	Email         string `gorm:"type:varchar(255); unique;not null"`
	Password      string `gorm:"type:varchar(255); not null" json:"-"`
	Headline      string `gorm:"type:varchar(255)"`
	ResumeURL     *string
	ResumeSummary *string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
