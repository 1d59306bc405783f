package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

type NotificationController struct {
	NotifSvc *services.NotificationService
}

func NewNotificationController(notifSvc *services.NotificationService) *NotificationController {
	return &NotificationController{NotifSvc: notifSvc}
}

// GetMyNotifications -> daftar notifikasi milik principal, terbaru dulu
func (nc *NotificationController) GetMyNotifications(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifs, err := nc.NotifSvc.ListByRecipient(p, limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications", notifs)
}

// GetUnreadCount -> jumlah yang belum dibaca, untuk badge di UI
func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	count, err := nc.NotifSvc.UnreadCount(p)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread count", gin.H{"unread_count": count})
}

// MarkNotificationRead menandai satu notifikasi milik principal
func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	id, err := strconv.ParseUint(c.Param("notif_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid notification id"))
		return
	}

	if err := nc.NotifSvc.MarkRead(p, uint(id)); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked read", gin.H{"notif_id": id})
}

// MarkAllNotificationsRead menandai semua milik principal
func (nc *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	affected, err := nc.NotifSvc.MarkAllRead(p)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked read", gin.H{"marked": affected})
}

// DeleteNotification menghapus satu milik principal
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	id, err := strconv.ParseUint(c.Param("notif_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid notification id"))
		return
	}

	if err := nc.NotifSvc.Delete(p, uint(id)); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", gin.H{"notif_id": id})
}

// DeleteAllNotifications mengosongkan notifikasi milik principal
func (nc *NotificationController) DeleteAllNotifications(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	deleted, err := nc.NotifSvc.DeleteAll(p)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications deleted", gin.H{"deleted": deleted})
}

// CreateNotification -> entry point yang sama dengan fallback chat, dipakai
// collaborator lain (status lamaran, jadwal interview). Create di sini juga
// memicu push ke koneksi recipient yang ada.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	type reqBody struct {
		RecipientType models.ActorType       `json:"recipient_type" binding:"required"`
		RecipientID   uint                   `json:"recipient_id" binding:"required"`
		Type          string                 `json:"type" binding:"required"`
		Title         string                 `json:"title" binding:"required"`
		Message       string                 `json:"message" binding:"required"`
		Priority      string                 `json:"priority"`
		Data          map[string]interface{} `json:"data"`
		TTLHours      int                    `json:"ttl_hours"`
	}
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	input := services.NotificationInput{
		Recipient: models.Principal{Type: req.RecipientType, ID: req.RecipientID},
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		Data:      req.Data,
	}
	if req.TTLHours > 0 {
		expires := time.Now().Add(time.Duration(req.TTLHours) * time.Hour)
		input.ExpiresAt = &expires
	}

	notif, err := nc.NotifSvc.Create(input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRecipient) || errors.Is(err, services.ErrInvalidNotifType) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}
