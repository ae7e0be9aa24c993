package drivers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,name,email,phone,password_hash,status,work_mode,pay_type,pay_rate,notify_email,notify_sms,created_at,updated_at`

// Repo is the Postgres drivers and driver_shifts tables.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Driver, error) {
	var d models.Driver
	if err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.PasswordHash, &d.Status, &d.WorkMode,
		&d.PayType, &d.PayRate, &d.NotifyEmail, &d.NotifySMS, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) Create(ctx context.Context, d *models.Driver) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO drivers (id,name,email,phone,password_hash,status,work_mode,pay_type,pay_rate,notify_email,notify_sms)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING created_at,updated_at`,
		d.ID, d.Name, d.Email, d.Phone, d.PasswordHash, d.Status, d.WorkMode, d.PayType, d.PayRate,
		d.NotifyEmail, d.NotifySMS,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// Get returns (nil, nil) on a miss.
func (r *Repo) Get(ctx context.Context, id string) (*models.Driver, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM drivers WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return d, err
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.Driver, error) {
	d, err := scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM drivers WHERE lower(email)=lower($1)`, strings.TrimSpace(email)))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return d, err
}

func (r *Repo) List(ctx context.Context, status string, limit, offset int) ([]models.Driver, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM drivers
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY name LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Update leaves password_hash alone when d.PasswordHash is empty.
func (r *Repo) Update(ctx context.Context, d *models.Driver) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE drivers SET name=$1, email=$2, phone=$3, status=$4, work_mode=$5, pay_type=$6, pay_rate=$7,
		        notify_email=$8, notify_sms=$9,
		        password_hash=CASE WHEN $10 = '' THEN password_hash ELSE $10 END,
		        updated_at=NOW()
		 WHERE id=$11`,
		d.Name, d.Email, d.Phone, d.Status, d.WorkMode, d.PayType, d.PayRate,
		d.NotifyEmail, d.NotifySMS, d.PasswordHash, d.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM drivers WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) ListShifts(ctx context.Context, driverID string) ([]models.DriverShift, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id,driver_id,weekday,specific_date,start_time,end_time,timezone,created_at
		 FROM driver_shifts WHERE driver_id=$1
		 ORDER BY weekday NULLS LAST, specific_date, start_time`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DriverShift
	for rows.Next() {
		var s models.DriverShift
		if err := rows.Scan(&s.ID, &s.DriverID, &s.Weekday, &s.SpecificDate,
			&s.StartTime, &s.EndTime, &s.Timezone, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) CreateShift(ctx context.Context, s *models.DriverShift) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO driver_shifts (id,driver_id,weekday,specific_date,start_time,end_time,timezone)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`,
		s.ID, s.DriverID, s.Weekday, s.SpecificDate, s.StartTime, s.EndTime, s.Timezone,
	).Scan(&s.CreatedAt)
}

func (r *Repo) DeleteShift(ctx context.Context, driverID, shiftID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM driver_shifts WHERE id=$1 AND driver_id=$2`, shiftID, driverID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
