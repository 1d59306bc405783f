package models

import "time"

type Employer struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyName string `gorm:"type:varchar(255); not null"`
	Email       string `gorm:"type:varchar(255); unique;not null"`
	Password    string `gorm:"type:varchar(255); not null" json:"-"`
	Website     string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
