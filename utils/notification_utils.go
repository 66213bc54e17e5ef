package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// sendEmail delivers one plain-text email. Failures are logged and returned;
// callers in the payment flow treat them as non-fatal.
func sendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	if smtpHost == "" {
		log.Printf("SMTP_HOST not configured, skipping email to %s (%s)", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

// SendEnrollmentConfirmationEmail tells a student their payment settled and
// they are enrolled. Fire-and-forget: call it from a goroutine.
func SendEnrollmentConfirmationEmail(to, courseTitle, reference string) {
	subject := "Enrollment confirmed"
	body := fmt.Sprintf("Your payment was received and you are now enrolled in %s.\n\nPayment reference: %s\n\nHappy learning!", courseTitle, reference)
	_ = sendEmail(to, subject, body)
}

// SendWithdrawalRequestEmail notifies the platform admin of a new payout
// request. Fire-and-forget: call it from a goroutine.
func SendWithdrawalRequestEmail(adminEmail, instructorID, reference string, amount float64) {
	subject := "New Withdrawal Request"
	body := fmt.Sprintf("A new withdrawal request has been submitted.\n\nInstructor ID: %s\nReference: %s\nAmount: $%.2f\n\nPlease review it in the payouts dashboard.", instructorID, reference, amount)
	_ = sendEmail(adminEmail, subject, body)
}
