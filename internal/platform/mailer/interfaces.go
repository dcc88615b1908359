package mailer

import "fmt"

// Attachment is a file attached to an outgoing message. Implementations
// base64-encode the content as their transport requires.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Service interface {
	Send(toEmail, toName, subject, text, html string, attachments ...Attachment) (string, error)
	SendGuestPass(toEmail, guestName, eventTitle string, qrPNG []byte) error
}

func guestPassMessage(guestName, eventTitle string) (subject, text, html string) {
	subject = fmt.Sprintf("Your pass for %s", eventTitle)
	text = fmt.Sprintf("Hi %s,\n\nYou're on the list for %s. Show the attached QR code at the door to check in.", guestName, eventTitle)
	html = fmt.Sprintf(`<p>Hi %s,</p><p>You're on the list for <b>%s</b>. Show the attached QR code at the door to check in.</p>`, guestName, eventTitle)
	return subject, text, html
}
