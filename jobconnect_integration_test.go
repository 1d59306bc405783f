package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/router"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration menguji flow utama:
// 0. Register candidate & employer, login -> token
// 1. Candidate mulai conversation dan kirim pesan; employer offline
// 2. Fallback notification terbentuk untuk employer
// 3. Employer baca riwayat, mark read, unread kembali 0
func TestEndToEndIntegration(t *testing.T) {
	db := setupIntegrationDB(t, "integration")
	hub := realtime.NewHub()
	notifSvc := services.NewNotificationService(db, hub)
	chatSvc := services.NewChatService(db, hub, notifSvc)
	hub.SetAuthorizer(chatSvc)
	r := router.SetupRouter(db, hub, chatSvc, notifSvc)

	// Register + login kedua sisi
	w := postJSON(t, r, "/candidates/register", "", map[string]string{
		"full_name": "Budi Santoso",
		"email":     "budi@example.com",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/employers/register", "", map[string]string{
		"company_name": "PT Maju Jaya",
		"email":        "hr@majujaya.co.id",
		"password":     "password123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	candidateToken := loginIntegration(t, r, "candidate", "budi@example.com")
	employerToken := loginIntegration(t, r, "employer", "hr@majujaya.co.id")

	// Candidate mulai conversation
	w = postJSON(t, r, "/api/conversations", candidateToken, map[string]interface{}{
		"counterparty_id": 1,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	convID := uint(resp["data"].(map[string]interface{})["ID"].(float64))

	// Kirim pesan; employer belum punya koneksi
	w = postJSON(t, r, fmt.Sprintf("/api/conversations/%d/messages", convID), candidateToken,
		map[string]string{"text": "Are you hiring?"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var conv models.Conversation
	db.First(&conv, convID)
	assert.EqualValues(t, 1, conv.UnreadForEmployer)

	// Employer menemukan fallback notification lewat pull
	w = getJSON(t, r, "/api/notifications", employerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	notifs := resp["data"].([]interface{})
	assert.Len(t, notifs, 1)
	notif := notifs[0].(map[string]interface{})
	assert.Equal(t, models.NotifMessageReceived, notif["Type"])
	assert.Equal(t, "Are you hiring?", notif["Message"])

	// Baca riwayat lalu mark read
	w = getJSON(t, r, fmt.Sprintf("/api/conversations/%d/messages", convID), employerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, fmt.Sprintf("/api/conversations/%d/read", convID), employerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&conv, convID)
	assert.EqualValues(t, 0, conv.UnreadForEmployer)
}

// TestGeneralRateLimiterEngaged memastikan limiter umum per-IP benar-benar
// masuk ke chain route yang terdaftar: request ke-51 dalam satu detik kena 429
func TestGeneralRateLimiterEngaged(t *testing.T) {
	db := setupIntegrationDB(t, "ratelimit")
	hub := realtime.NewHub()
	notifSvc := services.NewNotificationService(db, hub)
	chatSvc := services.NewChatService(db, hub, notifSvc)
	hub.SetAuthorizer(chatSvc)
	r := router.SetupRouter(db, hub, chatSvc, notifSvc)

	last := 0
	for i := 0; i < 51; i++ {
		req, err := http.NewRequest("GET", "/ping", nil)
		assert.NoError(t, err)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func setupIntegrationDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Candidate{},
		&models.Employer{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func postJSON(t *testing.T, r *gin.Engine, url, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest("POST", url, buf)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r *gin.Engine, url, token string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginIntegration(t *testing.T, r *gin.Engine, actorType, email string) string {
	t.Helper()
	w := postJSON(t, r, "/login", "", map[string]string{
		"type":     actorType,
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["data"].(map[string]interface{})["token"].(string)
}
