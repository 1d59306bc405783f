package models

import "time"

// Conversation -> thread dua arah antara satu candidate dan satu employer.
// Unique index di pasangan (candidate_id, employer_id) menjamin maksimal
// satu conversation per pasangan.
type Conversation struct {
	ID                  uint      `gorm:"primaryKey"`
	CandidateID         uint      `gorm:"not null;uniqueIndex:idx_conversation_pair"`
	Candidate           Candidate `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	EmployerID          uint      `gorm:"not null;uniqueIndex:idx_conversation_pair"`
	Employer            Employer  `gorm:"foreignKey:EmployerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	LastMessageAt       *time.Time
	LastMessagePreview  string `gorm:"type:varchar(200)"`
	UnreadForCandidate  uint   `gorm:"not null;default:0"`
	UnreadForEmployer   uint   `gorm:"not null;default:0"`
	ArchivedByCandidate bool   `gorm:"not null;default:false"`
	ArchivedByEmployer  bool   `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasParticipant -> true kalau principal adalah salah satu dari dua sisi
func (cv Conversation) HasParticipant(p Principal) bool {
	switch p.Type {
	case ActorCandidate:
		return cv.CandidateID == p.ID
	case ActorEmployer:
		return cv.EmployerID == p.ID
	}
	return false
}

// Counterparty mengembalikan sisi lawan dari principal yang diberikan
func (cv Conversation) Counterparty(p Principal) Principal {
	switch p.Type {
	case ActorCandidate:
		return Principal{Type: ActorEmployer, ID: cv.EmployerID}
	case ActorEmployer:
		return Principal{Type: ActorCandidate, ID: cv.CandidateID}
	}
	return Principal{}
}

// UnreadFor -> unread counter milik sisi principal
func (cv Conversation) UnreadFor(p Principal) uint {
	if p.Type == ActorCandidate {
		return cv.UnreadForCandidate
	}
	return cv.UnreadForEmployer
}
