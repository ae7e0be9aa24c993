package bookings

import (
	"context"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,confirmation_number,full_name,email,phone,pickup_address,dropoff_address,pickup_date,pickup_time,
	vehicle_type,distance_miles,total,flight_number,tail_number,payment_session_id,payment_intent_id,status,created_at,updated_at`

// Repo is the Postgres bookings table.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

// Insert fails with a unique violation when the confirmation number is taken.
func (r *Repo) Insert(ctx context.Context, b *models.Booking) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO bookings (id,confirmation_number,full_name,email,phone,pickup_address,dropoff_address,
		                       pickup_date,pickup_time,vehicle_type,distance_miles,total,flight_number,tail_number,
		                       payment_session_id,payment_intent_id,status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 RETURNING created_at,updated_at`,
		b.ID, b.ConfirmationNumber, b.FullName, b.Email, b.Phone, b.PickupAddress, b.DropoffAddress,
		b.Date, b.Time, b.VehicleType, b.DistanceMiles, b.Total, b.FlightNumber, b.TailNumber,
		b.PaymentSessionID, b.PaymentIntentID, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *Repo) GetByConfirmation(ctx context.Context, code string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE confirmation_number=$1`, code).
		Scan(&b.ID, &b.ConfirmationNumber, &b.FullName, &b.Email, &b.Phone, &b.PickupAddress, &b.DropoffAddress,
			&b.Date, &b.Time, &b.VehicleType, &b.DistanceMiles, &b.Total, &b.FlightNumber, &b.TailNumber,
			&b.PaymentSessionID, &b.PaymentIntentID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
