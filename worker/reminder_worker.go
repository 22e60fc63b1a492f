package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"dealerflow/models"
	"dealerflow/utils"
)

// ReminderWorker sends appointment reminders ahead of the scheduled time and
// notifies the assigned staff member in-app.
type ReminderWorker struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger

	// LeadTime is how far ahead of the appointment the reminder goes out.
	LeadTime time.Duration
}

func NewReminderWorker(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		DB:       db,
		Mailer:   mailer,
		Logger:   logger,
		LeadTime: 24 * time.Hour,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Println("Reminder worker started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.processDueReminders()
		}
	}
}

func (rw *ReminderWorker) processDueReminders() {
	var due []models.Appointment
	err := rw.DB.Where("status IN ? AND reminder_sent_at IS NULL AND scheduled_at > ? AND scheduled_at <= ?",
		[]string{models.AppointmentStatusScheduled, models.AppointmentStatusConfirmed},
		time.Now(), time.Now().Add(rw.LeadTime)).
		Preload("Lead").
		Find(&due).Error
	if err != nil {
		rw.Logger.Printf("Error fetching due reminders: %v", err)
		return
	}

	for _, appointment := range due {
		if err := rw.sendReminder(appointment); err != nil {
			rw.Logger.Printf("Error sending reminder for appointment %d: %v", appointment.ID, err)
			continue
		}
		if err := rw.DB.Model(&appointment).Update("reminder_sent_at", time.Now()).Error; err != nil {
			rw.Logger.Printf("Error marking reminder sent for appointment %d: %v", appointment.ID, err)
		}
	}
}

func (rw *ReminderWorker) sendReminder(appointment models.Appointment) error {
	if appointment.Lead.Email != "" {
		var dealership models.Dealership
		if err := rw.DB.First(&dealership, appointment.DealershipID).Error; err != nil {
			return err
		}

		_, err := rw.Mailer.SendTemplate(appointment.Lead.Email,
			fmt.Sprintf("Reminder: %s", appointment.Title),
			"appointment_reminder",
			map[string]interface{}{
				"Name":       appointment.Lead.FullName(),
				"Dealership": dealership.Name,
				"Title":      appointment.Title,
				"When":       appointment.ScheduledAt.Format("Mon, 2 Jan 2006 at 15:04"),
			})
		if err != nil {
			return err
		}
	}

	if appointment.AssignedToID != nil {
		notification := models.Notification{
			DealershipID: appointment.DealershipID,
			UserID:       *appointment.AssignedToID,
			LeadID:       &appointment.LeadID,
			Title:        "Upcoming appointment",
			Body:         fmt.Sprintf("%s with %s at %s", appointment.Title, appointment.Lead.FullName(), appointment.ScheduledAt.Format("15:04")),
			Kind:         "info",
		}
		if err := rw.DB.Create(&notification).Error; err != nil {
			rw.Logger.Printf("Error creating reminder notification: %v", err)
		}
	}

	rw.Logger.Printf("Sent reminder for appointment %d (lead %d)", appointment.ID, appointment.LeadID)
	return nil
}
