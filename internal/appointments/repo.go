package appointments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,client_id,driver_id,pickup_address,dropoff_address,pickup_time,flight_number,
	distance_miles,price,vehicle_preference,status,source,metadata::text,created_at`

// Repo is the Postgres appointments table.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var a models.Appointment
	var meta string
	if err := row.Scan(&a.ID, &a.ClientID, &a.DriverID, &a.PickupAddress, &a.DropoffAddress,
		&a.PickupTime, &a.FlightNumber, &a.DistanceMiles, &a.Price, &a.VehiclePreference,
		&a.Status, &a.Source, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) Create(ctx context.Context, a *models.Appointment) (*models.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRow(ctx,
		`INSERT INTO appointments (id,client_id,driver_id,pickup_address,dropoff_address,pickup_time,flight_number,
		                           distance_miles,price,vehicle_preference,status,source,metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING created_at`,
		a.ID, a.ClientID, a.DriverID, a.PickupAddress, a.DropoffAddress, a.PickupTime.UTC(), a.FlightNumber,
		a.DistanceMiles, a.Price, a.VehiclePreference, a.Status, a.Source, string(meta),
	).Scan(&a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MarkAssigned moves a pending appointment to assigned. It reports false if
// the appointment was no longer pending.
func (r *Repo) MarkAssigned(ctx context.Context, id, driverID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET status=$1, driver_id=$2 WHERE id=$3 AND status=$4`,
		models.AppointmentAssigned, driverID, id, models.AppointmentPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetStatus is used to mirror reservation progress onto the appointment.
func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE appointments SET status=$1 WHERE id=$2`, status, id)
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM appointments WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return a, err
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	Status   string
	DriverID string
	From, To time.Time
	Limit    int
	Offset   int
}

func (r *Repo) List(ctx context.Context, f Filter) ([]models.Appointment, error) {
	var from, to *time.Time
	if !f.From.IsZero() {
		from = &f.From
	}
	if !f.To.IsZero() {
		to = &f.To
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM appointments
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR driver_id::text = $2)
		   AND ($3::timestamptz IS NULL OR pickup_time >= $3)
		   AND ($4::timestamptz IS NULL OR pickup_time < $4)
		 ORDER BY pickup_time
		 LIMIT $5 OFFSET $6`,
		f.Status, f.DriverID, from, to, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
