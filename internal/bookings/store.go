package bookings

import (
	"context"

	"github.com/jackc/pgx/v5"

	"booking-service/internal/appointments"
	"booking-service/internal/assignment"
	"booking-service/internal/clients"
	"booking-service/internal/models"
	"booking-service/internal/reservations"
	"booking-service/pkg/db"
)

// Tx is every write a booking makes. All of it commits or none of it does.
type Tx interface {
	assignment.Store

	InsertBooking(ctx context.Context, b *models.Booking) error
	FindClientByEmail(ctx context.Context, email string) (*models.Client, error)
	FindClientByPhone(ctx context.Context, phone string) (*models.Client, error)
	// UpsertClientByEmail inserts c, or returns the client that already
	// holds its email when a concurrent booking got there first.
	UpsertClientByEmail(ctx context.Context, c *models.Client) (*models.Client, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	MarkAssigned(ctx context.Context, appointmentID, driverID string) (bool, error)
	InsertAssignmentLog(ctx context.Context, appointmentID string, driverID *string, trace []byte) error
	CreateReservation(ctx context.Context, r *models.Reservation) error
}

// Transactor runs fn inside one transaction, rolling back when it returns an error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// PGTransactor binds every repository to the same pgx transaction.
type PGTransactor struct {
	db *db.DB
}

func NewPGTransactor(d *db.DB) *PGTransactor { return &PGTransactor{db: d} }

func (t *PGTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return t.db.InTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			Repo:         assignment.NewRepo(tx),
			bookings:     NewRepo(tx),
			clients:      clients.NewRepo(tx),
			appointments: appointments.NewRepo(tx),
			reservations: reservations.NewRepo(tx),
		})
	})
}

type pgTx struct {
	*assignment.Repo
	bookings     *Repo
	clients      *clients.Repo
	appointments *appointments.Repo
	reservations *reservations.Repo
}

func (t *pgTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	return t.bookings.Insert(ctx, b)
}

func (t *pgTx) FindClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return t.clients.FindByEmail(ctx, email)
}

func (t *pgTx) FindClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	return t.clients.FindByPhone(ctx, phone)
}

func (t *pgTx) UpsertClientByEmail(ctx context.Context, c *models.Client) (*models.Client, error) {
	return t.clients.UpsertByEmail(ctx, c)
}

func (t *pgTx) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	_, err := t.appointments.Create(ctx, a)
	return err
}

func (t *pgTx) MarkAssigned(ctx context.Context, appointmentID, driverID string) (bool, error) {
	return t.appointments.MarkAssigned(ctx, appointmentID, driverID)
}

func (t *pgTx) InsertAssignmentLog(ctx context.Context, appointmentID string, driverID *string, trace []byte) error {
	_, err := t.Repo.InsertLog(ctx, appointmentID, driverID, trace)
	return err
}

func (t *pgTx) CreateReservation(ctx context.Context, r *models.Reservation) error {
	_, err := t.reservations.Create(ctx, r)
	return err
}
