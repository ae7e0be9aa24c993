package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,confirmation_code,appointment_id,contact_name,contact_phone,contact_email,pickup_time,
	from_address,to_address,vehicle_id,price,driver_id,status,started_at,arrived_at,done_at,created_at,updated_at`

// Repo is the Postgres reservations table.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	var r models.Reservation
	if err := row.Scan(&r.ID, &r.ConfirmationCode, &r.AppointmentID, &r.ContactName, &r.ContactPhone,
		&r.ContactEmail, &r.PickupTime, &r.FromAddress, &r.ToAddress, &r.VehicleID, &r.Price,
		&r.DriverID, &r.Status, &r.StartedAt, &r.ArrivedAt, &r.DoneAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Repo) Create(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.Status == "" {
		res.Status = models.ReservationAssigned
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO reservations (id,confirmation_code,appointment_id,contact_name,contact_phone,contact_email,
		                           pickup_time,from_address,to_address,vehicle_id,price,driver_id,status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING created_at,updated_at`,
		res.ID, res.ConfirmationCode, res.AppointmentID, res.ContactName, res.ContactPhone, res.ContactEmail,
		res.PickupTime.UTC(), res.FromAddress, res.ToAddress, res.VehicleID, res.Price, res.DriverID, res.Status,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM reservations WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return res, err
}

// ListForDriver returns a driver's jobs from the given instant on, soonest first.
func (r *Repo) ListForDriver(ctx context.Context, driverID string, since time.Time) ([]models.Reservation, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM reservations
		 WHERE driver_id=$1 AND pickup_time >= $2
		 ORDER BY pickup_time`, driverID, since)
}

// List is the admin view, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status string, limit, offset int) ([]models.Reservation, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM reservations
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY pickup_time DESC LIMIT $2 OFFSET $3`, status, limit, offset)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		res, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// UpdateDetails overwrites everything except status and milestones.
func (r *Repo) UpdateDetails(ctx context.Context, res *models.Reservation) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET confirmation_code=$1, contact_name=$2, contact_phone=$3, contact_email=$4,
		        pickup_time=$5, from_address=$6, to_address=$7, vehicle_id=$8, price=$9, driver_id=$10, updated_at=NOW()
		 WHERE id=$11`,
		res.ConfirmationCode, res.ContactName, res.ContactPhone, res.ContactEmail, res.PickupTime.UTC(),
		res.FromAddress, res.ToAddress, res.VehicleID, res.Price, res.DriverID, res.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompareAndSetStatus moves the row from -> to only if it still belongs to
// driverID and is still in from. The milestone column for to is stamped with at.
func (r *Repo) CompareAndSetStatus(ctx context.Context, id, driverID, from, to string, at time.Time) (bool, error) {
	set := `status=$1, updated_at=$2`
	if col, ok := milestones[to]; ok {
		set += `, ` + col + `=$2`
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET `+set+`
		 WHERE id=$3 AND driver_id=$4 AND status=$5`,
		to, at.UTC(), id, driverID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
