package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/utils"
)

// NotificationMonitor menjalankan tugas periodik: purge notifikasi yang
// lewat TTL dan bersih-bersih token blacklist
type NotificationMonitor struct {
	DB       *gorm.DB
	NotifSvc *NotificationService
	StopChan chan struct{}
	Interval time.Duration
}

func NewNotificationMonitor(db *gorm.DB, notifSvc *NotificationService) *NotificationMonitor {
	return &NotificationMonitor{
		DB:       db,
		NotifSvc: notifSvc,
		StopChan: make(chan struct{}),
		Interval: 1 * time.Hour,
	}
}

func (nm *NotificationMonitor) Start() {
	go func() {
		ticker := time.NewTicker(nm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				nm.runOnce()
			case <-nm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Println("Notification monitor started")
}

func (nm *NotificationMonitor) Stop() {
	close(nm.StopChan)
}

func (nm *NotificationMonitor) runOnce() {
	purged, err := nm.NotifSvc.PurgeExpired()
	if err != nil {
		utils.ErrorLogger.Printf("monitor: purge expired notifications failed: %v", err)
	} else if purged > 0 {
		utils.InfoLogger.Printf("monitor: purged %d expired notifications", purged)
	}

	utils.CleanupBlacklist()
}
