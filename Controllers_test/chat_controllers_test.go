package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/controllers"
	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

var chatDBSeq int

type chatTestEnv struct {
	db     *gorm.DB
	hub    *realtime.Hub
	router *gin.Engine
}

func setupChatEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	chatDBSeq++
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:chatctrl%d?mode=memory&cache=shared", chatDBSeq)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.Candidate{}, &models.Employer{}, &models.Conversation{}, &models.Message{}, &models.Notification{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.Candidate{FullName: "Budi Santoso", Email: "budi@example.com", Password: "x", Headline: "Backend Engineer"})
	db.Create(&models.Employer{CompanyName: "PT Maju Jaya", Email: "hr@majujaya.co.id", Password: "x"})

	hub := realtime.NewHub()
	notifSvc := services.NewNotificationService(db, hub)
	chatSvc := services.NewChatService(db, hub, notifSvc)
	hub.SetAuthorizer(chatSvc)

	router := gin.Default()
	chatCtrl := controllers.NewChatController(db, hub, chatSvc)
	api := router.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	api.GET("/conversations", chatCtrl.GetConversations)
	api.POST("/conversations", chatCtrl.StartConversation)
	api.GET("/conversations/:conversation_id/messages", chatCtrl.GetMessages)
	api.POST("/conversations/:conversation_id/messages", chatCtrl.SendMessage)
	api.POST("/conversations/:conversation_id/read", chatCtrl.MarkRead)
	api.PATCH("/conversations/:conversation_id/archive", chatCtrl.ArchiveConversation)
	api.GET("/presence/:type/:id", chatCtrl.GetPresence)

	return &chatTestEnv{db: db, hub: hub, router: router}
}

func (env *chatTestEnv) do(t *testing.T, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, buf)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, actorType models.ActorType, id uint) string {
	t.Helper()
	token, err := utils.GenerateToken(actorType, id)
	assert.NoError(t, err)
	return token
}

// Skenario: candidate mulai conversation dengan employer yang offline,
// kirim pesan, employer login belakangan lalu baca dan mark read.
func TestChatFlowOfflineEmployer(t *testing.T) {
	env := setupChatEnv(t)
	candidateToken := tokenFor(t, models.ActorCandidate, 1)
	employerToken := tokenFor(t, models.ActorEmployer, 1)

	// Start conversation (idempotent)
	w := env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 1})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	convID := uint(resp["data"].(map[string]interface{})["ID"].(float64))

	w = env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	var count int64
	env.db.Model(&models.Conversation{}).Count(&count)
	assert.EqualValues(t, 1, count, "start kedua tidak boleh bikin row baru")

	// Kirim pesan; employer offline
	w = env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/messages", convID), candidateToken,
		gin.H{"text": "Are you hiring?"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var conv models.Conversation
	env.db.First(&conv, convID)
	assert.EqualValues(t, 1, conv.UnreadForEmployer)
	assert.Equal(t, "Are you hiring?", conv.LastMessagePreview)

	var notifs []models.Notification
	env.db.Where("employer_id = ?", 1).Find(&notifs)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotifMessageReceived, notifs[0].Type)
	assert.Equal(t, "Are you hiring?", notifs[0].Message)

	// Employer membaca riwayat
	w = env.do(t, "GET", fmt.Sprintf("/api/conversations/%d/messages", convID), employerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	msgs := data["messages"].([]interface{})
	assert.Len(t, msgs, 1)
	assert.EqualValues(t, 0, data["next_cursor"])

	// Mark read
	w = env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/read", convID), employerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["data"].(map[string]interface{})["messages_read"])

	env.db.First(&conv, convID)
	assert.EqualValues(t, 0, conv.UnreadForEmployer)

	var msg models.Message
	env.db.Where("conversation_id = ?", convID).First(&msg)
	assert.NotNil(t, msg.ReadAt)

	// Idempotent
	w = env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/read", convID), employerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp["data"].(map[string]interface{})["messages_read"])
}

func TestChatAuthorizationDoesNotLeak(t *testing.T) {
	env := setupChatEnv(t)
	env.db.Create(&models.Candidate{FullName: "Orang Lain", Email: "lain@example.com", Password: "x"})

	candidateToken := tokenFor(t, models.ActorCandidate, 1)
	otherToken := tokenFor(t, models.ActorCandidate, 2)

	w := env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	convID := uint(resp["data"].(map[string]interface{})["ID"].(float64))

	// Bukan partisipan: balasan sama dengan conversation yang tidak ada
	w = env.do(t, "GET", fmt.Sprintf("/api/conversations/%d/messages", convID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", "/api/conversations/9999/messages", candidateToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Tanpa token sama sekali
	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/conversations/%d/messages", convID), nil)
	w2 := httptest.NewRecorder()
	env.router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
}

func TestStartConversationUnknownCounterparty(t *testing.T) {
	env := setupChatEnv(t)
	candidateToken := tokenFor(t, models.ActorCandidate, 1)

	w := env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 777})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageValidationOverHTTP(t *testing.T) {
	env := setupChatEnv(t)
	candidateToken := tokenFor(t, models.ActorCandidate, 1)

	w := env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 1})
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	convID := uint(resp["data"].(map[string]interface{})["ID"].(float64))

	w = env.do(t, "POST", fmt.Sprintf("/api/conversations/%d/messages", convID), candidateToken,
		gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPresenceEndpoint(t *testing.T) {
	env := setupChatEnv(t)
	candidateToken := tokenFor(t, models.ActorCandidate, 1)

	w := env.do(t, "GET", "/api/presence/employer/1", candidateToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["data"].(map[string]interface{})["online"])

	// Employer membuka satu koneksi
	env.hub.Register(realtime.NewClient(env.hub, nil, models.Principal{Type: models.ActorEmployer, ID: 1}))

	w = env.do(t, "GET", "/api/presence/employer/1", candidateToken, nil)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["data"].(map[string]interface{})["online"])

	w = env.do(t, "GET", "/api/presence/robot/1", candidateToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArchiveConversation(t *testing.T) {
	env := setupChatEnv(t)
	candidateToken := tokenFor(t, models.ActorCandidate, 1)

	w := env.do(t, "POST", "/api/conversations", candidateToken, gin.H{"counterparty_id": 1})
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	convID := uint(resp["data"].(map[string]interface{})["ID"].(float64))

	archived := true
	w = env.do(t, "PATCH", fmt.Sprintf("/api/conversations/%d/archive", convID), candidateToken,
		gin.H{"archived": &archived})
	assert.Equal(t, http.StatusOK, w.Code)

	var conv models.Conversation
	env.db.First(&conv, convID)
	assert.True(t, conv.ArchivedByCandidate)
	assert.False(t, conv.ArchivedByEmployer, "flag archive per sisi")
}
