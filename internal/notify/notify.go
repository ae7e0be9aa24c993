// Package notify tells drivers about the rides they have been given.
// Delivery is pluggable; the built-in sender only logs.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-service/internal/events"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/logger"
)

// Compose renders the driver's rides as a plain-text message, soonest first
// as given. Times are shown in the operating zone.
func Compose(clock *schedule.Clock, d models.Driver, rides []models.Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n", d.Name)
	if len(rides) == 0 {
		b.WriteString("You have no upcoming rides.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "You have %d upcoming ride(s):\n", len(rides))
	for _, r := range rides {
		date, hhmm := clock.UTCToLocal(r.PickupTime)
		fmt.Fprintf(&b, "- %s %s  %s -> %s  [%s] %s", date, hhmm, r.FromAddress, r.ToAddress, r.ConfirmationCode, r.ContactName)
		if r.ContactPhone != "" {
			fmt.Fprintf(&b, " (%s)", r.ContactPhone)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, d models.Driver, msg string) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log logger.ILogger
}

func NewLogSender(log logger.ILogger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(ctx context.Context, d models.Driver, msg string) error {
	channels := []string{}
	if d.NotifyEmail {
		channels = append(channels, "email")
	}
	if d.NotifySMS {
		channels = append(channels, "sms")
	}
	s.log.Info("driver notification",
		logger.String("driver_id", d.ID),
		logger.Any("channels", channels),
		logger.String("message", msg),
	)
	return nil
}

// DriverGetter returns (nil, nil) for an unknown driver.
type DriverGetter interface {
	Get(ctx context.Context, id string) (*models.Driver, error)
}

// RideLister lists a driver's rides from since on.
type RideLister interface {
	ListForDriver(ctx context.Context, driverID string, since time.Time) ([]models.Reservation, error)
}

// Notifier composes and sends messages for a driver's upcoming rides.
type Notifier struct {
	drivers DriverGetter
	rides   RideLister
	sender  Sender
	clock   *schedule.Clock
	log     logger.ILogger
}

func NewNotifier(drivers DriverGetter, rides RideLister, sender Sender, clock *schedule.Clock, log logger.ILogger) *Notifier {
	return &Notifier{drivers: drivers, rides: rides, sender: sender, clock: clock, log: log}
}

// ErrUnknownDriver is returned when the driver to notify does not exist.
var ErrUnknownDriver = errors.New("notify: unknown driver")

// NotifyDriver sends the driver every ride from now on and returns the message.
func (n *Notifier) NotifyDriver(ctx context.Context, driverID string) (string, error) {
	d, err := n.drivers.Get(ctx, driverID)
	if err != nil {
		return "", fmt.Errorf("load driver: %w", err)
	}
	if d == nil {
		return "", ErrUnknownDriver
	}
	rides, err := n.rides.ListForDriver(ctx, driverID, n.clock.Now())
	if err != nil {
		return "", fmt.Errorf("load rides: %w", err)
	}
	msg := Compose(n.clock, *d, rides)
	if !d.NotifyEmail && !d.NotifySMS {
		n.log.Debug("driver has notifications off", logger.String("driver_id", driverID))
		return msg, nil
	}
	if err := n.sender.Send(ctx, *d, msg); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	return msg, nil
}

// HandleDriverAssigned is the driver.assigned consumer.
func (n *Notifier) HandleDriverAssigned(ctx context.Context, data []byte) error {
	var ev events.DriverAssignedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	if ev.DriverID == "" {
		return nil
	}
	_, err := n.NotifyDriver(ctx, ev.DriverID)
	return err
}
