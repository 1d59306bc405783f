package services

import (
	"fmt"
	"net/smtp"
	"os"
	"sync"

	"github.com/yeremiapane/jobconnect-app/utils"
)

// MailerService -> pengiriman email fire-and-forget. Gagal kirim hanya
// di-log, tidak pernah menggagalkan request yang memicunya.
type MailerService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

var (
	mailerService *MailerService
	mailerOnce    sync.Once
)

func GetMailerService() *MailerService {
	mailerOnce.Do(func() {
		mailerService = &MailerService{
			host:     os.Getenv("SMTP_HOST"),
			port:     os.Getenv("SMTP_PORT"),
			username: os.Getenv("SMTP_USERNAME"),
			password: os.Getenv("SMTP_PASSWORD"),
			from:     os.Getenv("SMTP_FROM"),
		}
		if mailerService.port == "" {
			mailerService.port = "587"
		}
		if mailerService.from == "" {
			mailerService.from = "no-reply@jobconnect.local"
		}
	})
	return mailerService
}

// SendAsync mengirim di goroutine terpisah dan langsung return
func (m *MailerService) SendAsync(to, subject, body string) {
	go func() {
		if err := m.send(to, subject, body); err != nil {
			utils.ErrorLogger.Printf("mailer: send to %s failed: %v", to, err)
		}
	}()
}

func (m *MailerService) send(to, subject, body string) error {
	if m.host == "" {
		// SMTP belum dikonfigurasi (umum di development), cukup log
		utils.InfoLogger.Printf("mailer: SMTP_HOST not set, skipping mail to %s (%s)", to, subject)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, to, subject, body))

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}
