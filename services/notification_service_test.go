package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/utils"
)

func setupNotificationService(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	utils.InitLogger()

	testDBSeq++
	dsn := fmt.Sprintf("file:notifsvc%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Candidate{}, &models.Employer{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.Candidate{FullName: "Budi", Email: "budi@example.com", Password: "x"})
	db.Create(&models.Employer{CompanyName: "PT Maju Jaya", Email: "hr@majujaya.co.id", Password: "x"})

	return NewNotificationService(db, realtime.NewHub()), db
}

func TestCreateNotificationValidation(t *testing.T) {
	ns, _ := setupNotificationService(t)

	_, err := ns.Create(NotificationInput{
		Recipient: models.Principal{Type: "ghost", ID: 1},
		Type:      models.NotifMessageReceived,
	})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = ns.Create(NotificationInput{
		Recipient: models.Principal{Type: models.ActorCandidate, ID: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidNotifType)
}

func TestCreateNotificationDefaultsAndRecipientXor(t *testing.T) {
	ns, _ := setupNotificationService(t)

	notif, err := ns.Create(NotificationInput{
		Recipient: models.Principal{Type: models.ActorEmployer, ID: 1},
		Type:      models.NotifMessageReceived,
		Title:     "New message",
		Message:   "Halo",
		Data:      map[string]interface{}{"conversation_id": 1},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, notif.Priority)
	assert.Nil(t, notif.CandidateID)
	assert.NotNil(t, notif.EmployerID)
	assert.False(t, notif.IsRead)
	assert.NotEmpty(t, notif.Data)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	ns, _ := setupNotificationService(t)
	recipient := models.Principal{Type: models.ActorCandidate, ID: 1}

	var ids []uint
	for i := 0; i < 3; i++ {
		n, err := ns.Create(NotificationInput{
			Recipient: recipient,
			Type:      models.NotifApplicationViewed,
			Title:     "Application viewed",
			Message:   "Lamaranmu dilihat",
		})
		assert.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := ns.UnreadCount(recipient)
	assert.NoError(t, err)
	assert.EqualValues(t, 3, count)

	assert.NoError(t, ns.MarkRead(recipient, ids[0]))
	count, _ = ns.UnreadCount(recipient)
	assert.EqualValues(t, 2, count)

	// Scoped: principal lain tidak bisa menandai milik orang
	err = ns.MarkRead(models.Principal{Type: models.ActorEmployer, ID: 1}, ids[1])
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	affected, err := ns.MarkAllRead(recipient)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	count, _ = ns.UnreadCount(recipient)
	assert.EqualValues(t, 0, count)
}

func TestDeleteScopedToRecipient(t *testing.T) {
	ns, db := setupNotificationService(t)
	candidate := models.Principal{Type: models.ActorCandidate, ID: 1}
	employer := models.Principal{Type: models.ActorEmployer, ID: 1}

	n1, _ := ns.Create(NotificationInput{Recipient: candidate, Type: models.NotifInterviewScheduled, Title: "t", Message: "m"})
	ns.Create(NotificationInput{Recipient: employer, Type: models.NotifMessageReceived, Title: "t", Message: "m"})

	assert.ErrorIs(t, ns.Delete(employer, n1.ID), ErrNotificationNotFound)
	assert.NoError(t, ns.Delete(candidate, n1.ID))

	deleted, err := ns.DeleteAll(employer)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestExpiredNotificationsFilteredAndPurged(t *testing.T) {
	ns, db := setupNotificationService(t)
	recipient := models.Principal{Type: models.ActorCandidate, ID: 1}

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	ns.Create(NotificationInput{Recipient: recipient, Type: models.NotifInterviewReminder, Title: "t", Message: "expired", ExpiresAt: &past})
	ns.Create(NotificationInput{Recipient: recipient, Type: models.NotifInterviewReminder, Title: "t", Message: "fresh", ExpiresAt: &future})

	notifs, err := ns.ListByRecipient(recipient, 0)
	assert.NoError(t, err)
	assert.Len(t, notifs, 1)
	assert.Equal(t, "fresh", notifs[0].Message)

	count, _ := ns.UnreadCount(recipient)
	assert.EqualValues(t, 1, count)

	purged, err := ns.PurgeExpired()
	assert.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var remaining int64
	db.Model(&models.Notification{}).Count(&remaining)
	assert.EqualValues(t, 1, remaining)
}

func TestListByRecipientNewestFirst(t *testing.T) {
	ns, db := setupNotificationService(t)
	recipient := models.Principal{Type: models.ActorEmployer, ID: 1}

	older := models.Notification{Type: models.NotifMessageReceived, Title: "t", Message: "older", Priority: models.PriorityMedium, CreatedAt: time.Now().Add(-time.Minute)}
	older.SetRecipient(recipient)
	db.Create(&older)

	newer := models.Notification{Type: models.NotifMessageReceived, Title: "t", Message: "newer", Priority: models.PriorityMedium, CreatedAt: time.Now()}
	newer.SetRecipient(recipient)
	db.Create(&newer)

	notifs, err := ns.ListByRecipient(recipient, 10)
	assert.NoError(t, err)
	assert.Len(t, notifs, 2)
	assert.Equal(t, "newer", notifs[0].Message)
	assert.Equal(t, "older", notifs[1].Message)
}
