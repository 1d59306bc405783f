package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

const maxAttachmentSize = 10 << 20 // 10MB

// Ekstensi attachment yang diizinkan -> kind
var allowedAttachmentKinds = map[string]string{
	".jpg":  models.AttachmentKindImage,
	".jpeg": models.AttachmentKindImage,
	".png":  models.AttachmentKindImage,
	".gif":  models.AttachmentKindImage,
	".webp": models.AttachmentKindImage,
	".pdf":  models.AttachmentKindFile,
	".doc":  models.AttachmentKindFile,
	".docx": models.AttachmentKindFile,
	".txt":  models.AttachmentKindFile,
	".zip":  models.AttachmentKindFile,
}

type ChatController struct {
	DB      *gorm.DB
	Hub     *realtime.Hub
	ChatSvc *services.ChatService
}

func NewChatController(db *gorm.DB, hub *realtime.Hub, chatSvc *services.ChatService) *ChatController {
	return &ChatController{DB: db, Hub: hub, ChatSvc: chatSvc}
}

// respondChatError memetakan error service ke status HTTP. Otorisasi gagal
// dibalas sama dengan not-found supaya keberadaan conversation tidak bocor.
func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrInvalidAttachment):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// authorizedConversation -> resolve principal + param + gate otorisasi
func (cc *ChatController) authorizedConversation(c *gin.Context) (*models.Conversation, models.Principal, bool) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return nil, models.Principal{}, false
	}

	idStr := c.Param("conversation_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid conversation id"))
		return nil, models.Principal{}, false
	}

	conv, err := cc.ChatSvc.Authorize(uint(id), p)
	if err != nil {
		respondChatError(c, err)
		return nil, models.Principal{}, false
	}
	return conv, p, true
}

// GetConversations -> daftar conversation milik principal, urut aktivitas
// terakhir, dengan data display lawan bicara dan flag online
func (cc *ChatController) GetConversations(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	summaries, err := cc.ChatSvc.ListConversations(p)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of conversations", summaries)
}

// StartConversation -> idempotent create; kedua sisi boleh mulai duluan
func (cc *ChatController) StartConversation(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	type reqBody struct {
		CounterpartyID uint `json:"counterparty_id" binding:"required"`
	}
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var candidateID, employerID uint
	switch p.Type {
	case models.ActorCandidate:
		candidateID, employerID = p.ID, req.CounterpartyID
		var employer models.Employer
		if err := cc.DB.First(&employer, employerID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("employer not found"))
			return
		}
	case models.ActorEmployer:
		candidateID, employerID = req.CounterpartyID, p.ID
		var candidate models.Candidate
		if err := cc.DB.First(&candidate, candidateID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("candidate not found"))
			return
		}
	}

	conv, err := cc.ChatSvc.FindOrCreate(candidateID, employerID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Conversation ready", conv)
}

// GetMessages -> pagination cursor, hasil ascending
func (cc *ChatController) GetMessages(c *gin.Context) {
	conv, _, ok := cc.authorizedConversation(c)
	if !ok {
		return
	}

	var cursor uint
	if raw := c.Query("cursor"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid cursor"))
			return
		}
		cursor = uint(v)
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	msgs, nextCursor, err := cc.ChatSvc.ListMessages(conv.ID, cursor, limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Messages", gin.H{
		"messages":    msgs,
		"next_cursor": nextCursor,
	})
}

// SendMessage menerima JSON {text} atau multipart dengan field text plus
// satu file attachment (size-limited, ekstensi allow-listed)
func (cc *ChatController) SendMessage(c *gin.Context) {
	conv, p, ok := cc.authorizedConversation(c)
	if !ok {
		return
	}

	var (
		text       string
		attachment *services.AttachmentInput
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		text = c.PostForm("text")

		file, err := c.FormFile("attachment")
		if err == nil && file != nil {
			attachment, err = cc.storeAttachment(c, file.Filename, file.Size)
			if err != nil {
				utils.RespondError(c, http.StatusBadRequest, err)
				return
			}
		}
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		text = req.Text
	}

	msg, err := cc.ChatSvc.SendMessage(conv, p, text, attachment)
	if err != nil {
		respondChatError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Message sent", msg)
}

// storeAttachment menyimpan file upload dengan nama uuid di public/uploads
// dan mengembalikan deskriptornya
func (cc *ChatController) storeAttachment(c *gin.Context, filename string, size int64) (*services.AttachmentInput, error) {
	if size <= 0 || size > maxAttachmentSize {
		return nil, errors.New("attachment size must be between 1 byte and 10MB")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	kind, allowed := allowedAttachmentKinds[ext]
	if !allowed {
		return nil, errors.New("attachment type not allowed")
	}

	file, err := c.FormFile("attachment")
	if err != nil {
		return nil, err
	}

	stored := uuid.New().String() + ext
	dst := filepath.Join("public", "uploads", "chat", stored)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		utils.ErrorLogger.Printf("chat: saving attachment failed: %v", err)
		return nil, errors.New("failed to store attachment")
	}

	return &services.AttachmentInput{
		URL:  "/uploads/chat/" + stored,
		Kind: kind,
		Name: filepath.Base(filename),
		Size: size,
	}, nil
}

// MarkRead -> transisi batch di pipeline; aman dipanggil berulang
func (cc *ChatController) MarkRead(c *gin.Context) {
	conv, p, ok := cc.authorizedConversation(c)
	if !ok {
		return
	}

	affected, err := cc.ChatSvc.MarkRead(conv, p)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Conversation marked read", gin.H{
		"messages_read": affected,
	})
}

// ArchiveConversation -> set/unset flag archive milik sisi pemanggil
func (cc *ChatController) ArchiveConversation(c *gin.Context) {
	conv, p, ok := cc.authorizedConversation(c)
	if !ok {
		return
	}

	var req struct {
		Archived *bool `json:"archived" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := cc.ChatSvc.SetArchived(conv, p, *req.Archived); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Conversation updated", gin.H{"archived": *req.Archived})
}

// GetPresence -> {online} untuk satu principal
func (cc *ChatController) GetPresence(c *gin.Context) {
	actorType := models.ActorType(c.Param("type"))
	if !actorType.Valid() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("type must be candidate or employer"))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid id"))
		return
	}

	online := cc.Hub.IsActorOnline(actorType, uint(id))
	utils.RespondJSON(c, http.StatusOK, "Presence", gin.H{"online": online})
}
