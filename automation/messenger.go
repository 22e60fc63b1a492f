package automation

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dealerflow/models"
	"dealerflow/utils"
)

// ChannelMessenger sends outbound messages and records each send as a
// Message row on the lead's conversation. Email goes through SMTP; the SMS
// and WhatsApp channels are logged no-ops until their gateways are wired.
type ChannelMessenger struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *logrus.Logger
}

func NewChannelMessenger(db *gorm.DB, mailer *utils.Mailer, logger *logrus.Logger) *ChannelMessenger {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChannelMessenger{DB: db, Mailer: mailer, Logger: logger}
}

func (m *ChannelMessenger) SendEmail(dealershipID uint, lead *models.Lead, subject, body string) error {
	if lead.Email == "" {
		return fmt.Errorf("lead %d has no email address", lead.ID)
	}
	messageID, err := m.Mailer.Send(lead.Email, subject, body)
	if err != nil {
		return fmt.Errorf("send email to lead %d: %w", lead.ID, err)
	}
	return m.record(dealershipID, lead.ID, "email", subject, body, messageID)
}

func (m *ChannelMessenger) SendSMS(dealershipID uint, lead *models.Lead, body string) error {
	if lead.Phone == "" {
		return fmt.Errorf("lead %d has no phone number", lead.ID)
	}
	// TODO: wire the SMS gateway; until then sends are log-only
	m.Logger.WithFields(logrus.Fields{"lead_id": lead.ID, "channel": "sms"}).Info("sms send skipped, gateway not configured")
	return m.record(dealershipID, lead.ID, "sms", "", body, "")
}

func (m *ChannelMessenger) SendWhatsApp(dealershipID uint, lead *models.Lead, body string) error {
	if lead.Phone == "" {
		return fmt.Errorf("lead %d has no phone number", lead.ID)
	}
	m.Logger.WithFields(logrus.Fields{"lead_id": lead.ID, "channel": "whatsapp"}).Info("whatsapp send skipped, gateway not configured")
	return m.record(dealershipID, lead.ID, "whatsapp", "", body, "")
}

func (m *ChannelMessenger) record(dealershipID, leadID uint, channel, subject, body, messageID string) error {
	now := time.Now()
	return m.DB.Create(&models.Message{
		DealershipID: dealershipID,
		LeadID:       leadID,
		Channel:      channel,
		Direction:    "outbound",
		Subject:      subject,
		Body:         body,
		MessageID:    messageID,
		SentAt:       &now,
	}).Error
}

// NopMessenger drops every send. Used in tests and in deployments without
// any outbound channel configured.
type NopMessenger struct{}

func (NopMessenger) SendEmail(uint, *models.Lead, string, string) error { return nil }
func (NopMessenger) SendSMS(uint, *models.Lead, string) error           { return nil }
func (NopMessenger) SendWhatsApp(uint, *models.Lead, string) error      { return nil }
