package mailer

import (
	"github.com/doorlist/doorlist/pkg/logger"
)

// DevMailer prints outgoing mail to the logs instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string, attachments ...Attachment) (string, error) {
	logger.Info("📧 [DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
		"attachments", len(attachments),
	)
	return "dev", nil
}

func (d *DevMailer) SendGuestPass(toEmail, guestName, eventTitle string, qrPNG []byte) error {
	logger.Info("📧 [DEV MAIL] Guest Pass",
		"to", toEmail,
		"guest", guestName,
		"event", eventTitle,
		"qr_bytes", len(qrPNG),
	)
	return nil
}
