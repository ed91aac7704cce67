package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/loggo"

	"taxi/internal/domain"
)

var notifyLogger = loggo.GetLogger("taxi.service.notification")

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationShiftStarted  NotificationType = "SHIFT_STARTED"
	NotificationShiftClosed   NotificationType = "SHIFT_CLOSED"
	NotificationTargetReached NotificationType = "TARGET_REACHED"
)

// Notification represents an event handed to the reminder collaborator.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// logSender writes notifications to the log.
type logSender struct{}

func (logSender) Send(_ context.Context, n Notification) error {
	notifyLogger.Infof("[NOTIFICATION] Type=%s, ID=%s, Message=%s", n.Type, n.ID, n.Message)
	return nil
}

// NotificationService emits shift events. Delivery failures are logged and
// never fail the command that raised them.
type NotificationService struct {
	sender Sender
}

// NewNotificationService creates a new NotificationService. A nil sender logs
// notifications.
func NewNotificationService(sender Sender) *NotificationService {
	if sender == nil {
		sender = logSender{}
	}
	return &NotificationService{sender: sender}
}

// NotifyShiftStarted announces a newly started shift.
func (s *NotificationService) NotifyShiftStarted(ctx context.Context, shift *domain.Shift) {
	s.send(ctx, Notification{
		Type:    NotificationShiftStarted,
		Message: "Shift started at odometer " + formatKm(shift.StartOdometer),
		Data: map[string]interface{}{
			"shift_id":       shift.ID,
			"shift_number":   shift.ShiftNumber,
			"date":           shift.Date.Format(domain.DateLayout),
			"start_odometer": shift.StartOdometer,
		},
		CreatedAt: shift.StartTime,
	})
}

// NotifyShiftClosed announces a closed shift with its receipt.
func (s *NotificationService) NotifyShiftClosed(ctx context.Context, receipt *domain.ShiftReceipt) {
	s.send(ctx, Notification{
		Type:    NotificationShiftClosed,
		Message: "Shift closed: " + FormatReceiptLine(receipt),
		Data: map[string]interface{}{
			"shift_id":    receipt.Shift.ID,
			"ride_count":  receipt.RideCount,
			"income":      receipt.Income.StringFixed(2),
			"distance":    receipt.Distance,
			"worked_time": domain.FormatWorkedTime(receipt.WorkedTime),
		},
		CreatedAt: receipt.ClosedAt,
	})
}

// NotifyTargetReached announces that the income of date reached target.
func (s *NotificationService) NotifyTargetReached(ctx context.Context, date time.Time, target, income domain.Money, at time.Time) {
	s.send(ctx, Notification{
		Type:    NotificationTargetReached,
		Message: "Daily target of " + target.StringFixed(2) + " reached with " + income.StringFixed(2),
		Data: map[string]interface{}{
			"date":   date.Format(domain.DateLayout),
			"target": target.StringFixed(2),
			"income": income.StringFixed(2),
		},
		CreatedAt: at,
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	if s == nil {
		return
	}
	n.ID = uuid.New().String()
	if err := s.sender.Send(ctx, n); err != nil {
		notifyLogger.Warningf("delivering %s notification: %v", n.Type, err)
	}
}
