package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/parkping/ParkPing/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// NotificationsEnabled reports whether scan notification emails are turned on.
func NotificationsEnabled() bool {
	return env.GetEnv("SCAN_NOTIFICATIONS", "false") == "true"
}

// NotifyContactRequest relays a scanner's contact request to the owner. Sent
// regardless of the scan notification setting; the scanner asked explicitly.
func NotifyContactRequest(ownerEmail, vehicleName, reason, message string) {
	if ownerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Someone wants to reach you about %s", vehicleName)
	body := fmt.Sprintf(
		"<p>A scanner of <strong>%s</strong> left a contact request.</p>"+
			"<p>Reason: %s</p>",
		vehicleName, reason,
	)
	if message != "" {
		body += fmt.Sprintf("<p>Message: %s</p>", message)
	}
	if err := SendMail(ownerEmail, subject, body); err != nil {
		log.Printf("failed to send contact request to %s: %v", ownerEmail, err)
	}
}

// NotifyVehicleScanned tells the owner someone opened their vehicle's QR page.
func NotifyVehicleScanned(ownerEmail, vehicleName string) {
	if !NotificationsEnabled() || ownerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Your vehicle %s was just scanned", vehicleName)
	body := fmt.Sprintf(
		"<p>Someone scanned the QR code on <strong>%s</strong>.</p>"+
			"<p>They may try to reach you through your contact settings.</p>",
		vehicleName,
	)
	if err := SendMail(ownerEmail, subject, body); err != nil {
		log.Printf("failed to send scan notification to %s: %v", ownerEmail, err)
	}
}
