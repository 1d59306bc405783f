package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/utils"
)

const (
	maxMessageRunes = 4000
	previewRunes    = 200
	notifPreview    = 100

	// Preview untuk pesan yang cuma berisi attachment, jangan string kosong
	attachmentPlaceholder = "[Attachment]"
)

var (
	// ErrConversationNotFound juga dipakai untuk principal yang bukan
	// partisipan, supaya keberadaan conversation tidak bocor
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message requires text or an attachment")
	ErrMessageTooLong       = errors.New("message text exceeds 4000 characters")
	ErrInvalidAttachment    = errors.New("invalid attachment descriptor")
)

// AttachmentInput -> deskriptor attachment yang sudah tersimpan di storage
type AttachmentInput struct {
	URL  string
	Kind string // image | file
	Name string
	Size int64
}

// ChatService memegang Conversation Store dan Message Pipeline.
// Conversations/messages hidup di durable store; satu-satunya shared state
// in-memory adalah hub, dan akses ke sana cuma lewat kontraknya.
type ChatService struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	NotifSvc *NotificationService
}

func NewChatService(db *gorm.DB, hub *realtime.Hub, notifSvc *NotificationService) *ChatService {
	return &ChatService{DB: db, Hub: hub, NotifSvc: notifSvc}
}

// FindOrCreate -> upsert atomik di pasangan (candidate_id, employer_id).
// Dua sisi yang "start conversation" bersamaan harus konvergen ke row yang
// sama: create yang kalah kena unique violation lalu mengambil row pemenang.
func (s *ChatService) FindOrCreate(candidateID, employerID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.Where("candidate_id = ? AND employer_id = ?", candidateID, employerID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{CandidateID: candidateID, EmployerID: employerID}
	if createErr := s.DB.Create(&conv).Error; createErr != nil {
		// Kalah race dengan create dari sisi lain: ambil row yang menang
		var existing models.Conversation
		if err := s.DB.Where("candidate_id = ? AND employer_id = ?", candidateID, employerID).
			First(&existing).Error; err == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conv, nil
}

// Authorize -> gate untuk semua operasi read/write di satu conversation.
// Juga dipakai hub saat client minta join topic.
func (s *ChatService) Authorize(conversationID uint, p models.Principal) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(p) {
		return nil, ErrConversationNotFound
	}
	return &conv, nil
}

// SendMessage memvalidasi, mempersist, dan menstempel pesan, lalu
// menjalankan fan-out dan fallback notifikasi. DeliveredAt diisi di sini:
// delivered = diterima server, bukan ack end-to-end.
// Persist pesan + update counter/preview conversation jalan dalam satu
// transaksi supaya unread counter tidak drift saat kirim bersamaan.
func (s *ChatService) SendMessage(conv *models.Conversation, sender models.Principal, text string, attachment *AttachmentInput) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > maxMessageRunes {
		return nil, ErrMessageTooLong
	}
	if attachment != nil {
		if attachment.URL == "" || attachment.Size <= 0 {
			return nil, ErrInvalidAttachment
		}
		if attachment.Kind != models.AttachmentKindImage && attachment.Kind != models.AttachmentKindFile {
			return nil, ErrInvalidAttachment
		}
	}

	now := time.Now()
	msg := models.Message{
		ConversationID: conv.ID,
		SenderType:     sender.Type,
		SenderID:       sender.ID,
		Text:           text,
		CreatedAt:      now,
		DeliveredAt:    now,
	}
	if attachment != nil {
		msg.AttachmentURL = &attachment.URL
		msg.AttachmentKind = &attachment.Kind
		msg.AttachmentName = &attachment.Name
		msg.AttachmentSize = &attachment.Size
	}

	preview := utils.TruncateRunes(text, previewRunes)
	if preview == "" {
		preview = attachmentPlaceholder
	}

	recipient := conv.Counterparty(sender)
	unreadColumn := "unread_for_employer"
	if recipient.Type == models.ActorCandidate {
		unreadColumn = "unread_for_candidate"
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_at":      now,
				"last_message_preview": preview,
				unreadColumn:           gorm.Expr(unreadColumn + " + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// Refresh field yang baru diubah supaya payload fan-out konsisten
	conv.LastMessageAt = &now
	conv.LastMessagePreview = preview
	if recipient.Type == models.ActorCandidate {
		conv.UnreadForCandidate++
	} else {
		conv.UnreadForEmployer++
	}

	s.Hub.PublishToConversation(realtime.EventMessageNew, *conv, MessageEventPayload{
		ConversationID: conv.ID,
		Message:        msg,
	})

	s.notifyIfOffline(conv, recipient, text)

	return &msg, nil
}

// notifyIfOffline -> Notification Fallback. Cek online lalu tulis record itu
// check-then-act dan memang racy; di jendela sempit recipient bisa dapat satu
// notifikasi duplikat, dan itu diterima ketimbang lock di hot path send.
func (s *ChatService) notifyIfOffline(conv *models.Conversation, recipient models.Principal, text string) {
	if s.Hub.IsOnline(recipient) {
		return
	}

	body := utils.TruncateRunes(text, notifPreview)
	if body == "" {
		body = attachmentPlaceholder
	}

	_, err := s.NotifSvc.Create(NotificationInput{
		Recipient: recipient,
		Type:      models.NotifMessageReceived,
		Title:     "New message",
		Message:   body,
		Priority:  models.PriorityMedium,
		Data: map[string]interface{}{
			"conversation_id": conv.ID,
			"action_url":      fmt.Sprintf("/conversations/%d", conv.ID),
		},
	})
	if err != nil {
		// Fallback gagal bukan alasan membatalkan send yang sudah commit
		utils.ErrorLogger.Printf("chat: fallback notification for %s failed: %v", recipient.Key(), err)
	}
}

// MarkRead -> transisi batch: semua pesan dari sisi lawan yang belum dibaca
// distempel sekaligus dan unread counter pembaca di-reset. Idempotent.
func (s *ChatService) MarkRead(conv *models.Conversation, reader models.Principal) (int64, error) {
	otherType := models.ActorEmployer
	unreadColumn := "unread_for_candidate"
	if reader.Type == models.ActorEmployer {
		otherType = models.ActorCandidate
		unreadColumn = "unread_for_employer"
	}

	now := time.Now()
	var affected int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_type = ? AND read_at IS NULL", conv.ID, otherType).
			Update("read_at", &now)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Update(unreadColumn, 0).Error
	})
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.Hub.PublishToConversation(realtime.EventMessageRead, *conv, ReadEventPayload{
			ConversationID: conv.ID,
			ReaderType:     reader.Type,
			ReaderID:       reader.ID,
			ReadAt:         now,
		})
	}
	return affected, nil
}

// ListMessages -> pagination cursor descending by id, hasil dikembalikan
// ascending (kronologis). nextCursor = 0 artinya sudah habis.
func (s *ChatService) ListMessages(conversationID uint, cursor uint, limit int) ([]models.Message, uint, error) {
	if limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}

	q := s.DB.Where("conversation_id = ?", conversationID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var msgs []models.Message
	if err := q.Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}

	var nextCursor uint
	if len(msgs) == limit {
		nextCursor = msgs[len(msgs)-1].ID
	}

	// Balik ke urutan kronologis
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nextCursor, nil
}

// ConversationSummary -> satu baris di daftar conversation milik principal,
// sudah di-enrich dengan data display lawan bicara dan flag online
type ConversationSummary struct {
	ID                 uint                `json:"id"`
	Counterparty       CounterpartyDisplay `json:"counterparty"`
	LastMessageAt      *time.Time          `json:"last_message_at"`
	LastMessagePreview string              `json:"last_message_preview"`
	UnreadCount        uint                `json:"unread_count"`
	Archived           bool                `json:"archived"`
}

type CounterpartyDisplay struct {
	Type     models.ActorType `json:"type"`
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Subtitle string           `json:"subtitle"` // headline / website
	Online   bool             `json:"online"`
}

// ListConversations mengembalikan conversation milik principal, urut
// last_message_at descending
func (s *ChatService) ListConversations(p models.Principal) ([]ConversationSummary, error) {
	q := s.DB.Preload("Candidate").Preload("Employer")
	switch p.Type {
	case models.ActorCandidate:
		q = q.Where("candidate_id = ?", p.ID)
	case models.ActorEmployer:
		q = q.Where("employer_id = ?", p.ID)
	}

	var convs []models.Conversation
	if err := q.Order("last_message_at DESC").Find(&convs).Error; err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, cv := range convs {
		other := cv.Counterparty(p)
		display := CounterpartyDisplay{
			Type:   other.Type,
			ID:     other.ID,
			Online: s.Hub.IsOnline(other),
		}
		switch other.Type {
		case models.ActorCandidate:
			display.Name = cv.Candidate.FullName
			display.Subtitle = cv.Candidate.Headline
		case models.ActorEmployer:
			display.Name = cv.Employer.CompanyName
			display.Subtitle = cv.Employer.Website
		}

		archived := cv.ArchivedByCandidate
		if p.Type == models.ActorEmployer {
			archived = cv.ArchivedByEmployer
		}

		out = append(out, ConversationSummary{
			ID:                 cv.ID,
			Counterparty:       display,
			LastMessageAt:      cv.LastMessageAt,
			LastMessagePreview: cv.LastMessagePreview,
			UnreadCount:        cv.UnreadFor(p),
			Archived:           archived,
		})
	}
	return out, nil
}

// SetArchived menyimpan flag archive milik satu sisi saja
func (s *ChatService) SetArchived(conv *models.Conversation, p models.Principal, archived bool) error {
	column := "archived_by_candidate"
	if p.Type == models.ActorEmployer {
		column = "archived_by_employer"
	}
	return s.DB.Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Update(column, archived).Error
}

// MessageEventPayload -> isi event message.new
type MessageEventPayload struct {
	ConversationID uint           `json:"conversation_id"`
	Message        models.Message `json:"message"`
}

// ReadEventPayload -> isi event message.read
type ReadEventPayload struct {
	ConversationID uint             `json:"conversation_id"`
	ReaderType     models.ActorType `json:"reader_type"`
	ReaderID       uint             `json:"reader_id"`
	ReadAt         time.Time        `json:"read_at"`
}
