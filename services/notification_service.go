package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/utils"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidRecipient     = errors.New("invalid notification recipient")
	ErrInvalidNotifType     = errors.New("invalid notification type")
)

// NotificationInput -> parameter entry point create-notification yang dipakai
// fallback chat maupun collaborator lain (status lamaran, jadwal interview)
type NotificationInput struct {
	Recipient models.Principal
	Type      string
	Title     string
	Message   string
	Priority  string
	Data      map[string]interface{}
	ExpiresAt *time.Time
}

type NotificationService struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewNotificationService(db *gorm.DB, hub *realtime.Hub) *NotificationService {
	return &NotificationService{DB: db, Hub: hub}
}

// Create mempersist notifikasi lalu langsung push ke koneksi recipient yang
// ada saat itu. Push ini yang menutup race recipient connect di antara cek
// online dan write; kalau tidak ada koneksi, record tinggal di-pull nanti.
func (ns *NotificationService) Create(input NotificationInput) (*models.Notification, error) {
	if !input.Recipient.Valid() {
		return nil, ErrInvalidRecipient
	}
	if input.Type == "" {
		return nil, ErrInvalidNotifType
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}

	notif := models.Notification{
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  input.Priority,
		ExpiresAt: input.ExpiresAt,
	}
	notif.SetRecipient(input.Recipient)

	if input.Data != nil {
		raw, err := json.Marshal(input.Data)
		if err != nil {
			return nil, err
		}
		notif.Data = datatypes.JSON(raw)
	}

	if err := ns.DB.Create(&notif).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("notification %d (%s) created for %s", notif.ID, notif.Type, input.Recipient.Key())

	ns.Hub.SendToPrincipal(input.Recipient, realtime.EventNotificationNew, notif)
	ns.pushUnreadCount(input.Recipient)

	return &notif, nil
}

// recipientScope membatasi query ke kolom recipient sesuai tipe principal
func recipientScope(q *gorm.DB, p models.Principal) *gorm.DB {
	switch p.Type {
	case models.ActorCandidate:
		return q.Where("candidate_id = ?", p.ID)
	case models.ActorEmployer:
		return q.Where("employer_id = ?", p.ID)
	}
	// Tipe tak dikenal tidak boleh melihat apa pun
	return q.Where("1 = 0")
}

// notExpired menyaring record yang sudah lewat TTL tapi belum di-purge monitor
func notExpired(q *gorm.DB) *gorm.DB {
	return q.Where("expires_at IS NULL OR expires_at > ?", time.Now())
}

// ListByRecipient mengembalikan notifikasi milik principal, terbaru dulu
func (ns *NotificationService) ListByRecipient(p models.Principal, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifs []models.Notification
	q := notExpired(recipientScope(ns.DB, p))
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifs).Error; err != nil {
		return nil, err
	}
	return notifs, nil
}

func (ns *NotificationService) UnreadCount(p models.Principal) (int64, error) {
	var count int64
	q := notExpired(recipientScope(ns.DB.Model(&models.Notification{}), p))
	if err := q.Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead menandai satu notifikasi milik principal; mark-read terminal,
// tidak pernah di-unread lagi
func (ns *NotificationService) MarkRead(p models.Principal, id uint) error {
	res := recipientScope(ns.DB.Model(&models.Notification{}), p).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	ns.pushUnreadCount(p)
	return nil
}

func (ns *NotificationService) MarkAllRead(p models.Principal) (int64, error) {
	res := recipientScope(ns.DB.Model(&models.Notification{}), p).
		Where("is_read = ?", false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	ns.pushUnreadCount(p)
	return res.RowsAffected, nil
}

func (ns *NotificationService) Delete(p models.Principal, id uint) error {
	res := recipientScope(ns.DB, p).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	ns.pushUnreadCount(p)
	return nil
}

func (ns *NotificationService) DeleteAll(p models.Principal) (int64, error) {
	res := recipientScope(ns.DB, p).Where("1 = 1").Delete(&models.Notification{})
	if res.Error != nil {
		return 0, res.Error
	}
	ns.pushUnreadCount(p)
	return res.RowsAffected, nil
}

// PurgeExpired menghapus record yang sudah lewat TTL; dipanggil monitor
func (ns *NotificationService) PurgeExpired() (int64, error) {
	res := ns.DB.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// CountChangedPayload -> isi event notification.count-changed
type CountChangedPayload struct {
	UnreadCount int64 `json:"unread_count"`
}

func (ns *NotificationService) pushUnreadCount(p models.Principal) {
	count, err := ns.UnreadCount(p)
	if err != nil {
		utils.ErrorLogger.Printf("notification: unread count for %s failed: %v", p.Key(), err)
		return
	}
	ns.Hub.SendToPrincipal(p, realtime.EventNotificationCount, CountChangedPayload{UnreadCount: count})
}
