package models

import "time"

// Jenis attachment yang diizinkan
const (
	AttachmentKindImage = "image"
	AttachmentKindFile  = "file"
)

// Message -> satu pesan di dalam satu conversation.
// DeliveredAt diisi saat create: "delivered" di sini berarti diterima server,
// bukan acknowledgment end-to-end dari client.
// ReadAt diisi sekali saja saat sisi lawan mark-read dan tidak pernah di-clear.
type Message struct {
	ID             uint         `gorm:"primaryKey"`
	ConversationID uint         `gorm:"not null;index"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SenderType     ActorType    `gorm:"type:varchar(16);not null"`
	SenderID       uint         `gorm:"not null"`
	Text           string       `gorm:"type:text"`
	AttachmentURL  *string      `gorm:"type:varchar(512)"`
	AttachmentKind *string      `gorm:"type:varchar(16)"` // image | file
	AttachmentName *string      `gorm:"type:varchar(255)"`
	AttachmentSize *int64
	CreatedAt      time.Time
	DeliveredAt    time.Time
	ReadAt         *time.Time
}

func (m Message) Sender() Principal {
	return Principal{Type: m.SenderType, ID: m.SenderID}
}

func (m Message) HasAttachment() bool {
	return m.AttachmentURL != nil && *m.AttachmentURL != ""
}
