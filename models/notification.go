package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tipe notifikasi
const (
	NotifApplicationSubmitted = "application_submitted"
	NotifApplicationViewed    = "application_viewed"
	NotifApplicationAccepted  = "application_accepted"
	NotifApplicationRejected  = "application_rejected"
	NotifInterviewScheduled   = "interview_scheduled"
	NotifInterviewRescheduled = "interview_rescheduled"
	NotifInterviewReminder    = "interview_reminder"
	NotifInterviewCancelled   = "interview_cancelled"
	NotifMessageReceived      = "message_received"
)

// Prioritas notifikasi
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification -> record durable untuk recipient yang tidak ter-reach lewat
// push. Tepat satu dari CandidateID / EmployerID yang terisi.
type Notification struct {
	ID          uint       `gorm:"primaryKey"`
	CandidateID *uint      `gorm:"index"`
	Candidate   *Candidate `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	EmployerID  *uint      `gorm:"index"`
	Employer    *Employer  `gorm:"foreignKey:EmployerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type        string     `gorm:"type:varchar(40);not null"`
	Title       string     `gorm:"type:varchar(100);not null"`
	Message     string     `gorm:"type:text;not null"`
	IsRead      bool       `gorm:"not null;default:false"`
	Data        datatypes.JSON
	Priority    string `gorm:"type:varchar(10);not null;default:medium"`
	CreatedAt   time.Time
	ExpiresAt   *time.Time `gorm:"index"`
}

// Recipient mengembalikan principal penerima berdasar kolom mana yang terisi
func (n Notification) Recipient() Principal {
	if n.CandidateID != nil {
		return Principal{Type: ActorCandidate, ID: *n.CandidateID}
	}
	if n.EmployerID != nil {
		return Principal{Type: ActorEmployer, ID: *n.EmployerID}
	}
	return Principal{}
}

// SetRecipient mengisi kolom sesuai tipe principal
func (n *Notification) SetRecipient(p Principal) {
	switch p.Type {
	case ActorCandidate:
		n.CandidateID = &p.ID
		n.EmployerID = nil
	case ActorEmployer:
		n.EmployerID = &p.ID
		n.CandidateID = nil
	}
}
