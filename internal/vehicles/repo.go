package vehicles

import (
	"context"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,name,plate,capacity,last_lat,last_lng,last_ping_at,telemetry_status,tracker_token,created_at,updated_at`

// Repo is the Postgres vehicles table.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := row.Scan(&v.ID, &v.Name, &v.Plate, &v.Capacity, &v.LastLat, &v.LastLng,
		&v.LastPingAt, &v.TelemetryStatus, &v.TrackerToken, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) Create(ctx context.Context, v *models.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.TelemetryStatus == "" {
		v.TelemetryStatus = StatusOffline
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO vehicles (id,name,plate,capacity,telemetry_status,tracker_token)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at,updated_at`,
		v.ID, v.Name, v.Plate, v.Capacity, v.TelemetryStatus, v.TrackerToken,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
}

// Get returns (nil, nil) on a miss.
func (r *Repo) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	v, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM vehicles WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return v, err
}

func (r *Repo) GetByToken(ctx context.Context, token string) (*models.Vehicle, error) {
	v, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM vehicles WHERE tracker_token=$1`, token))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return v, err
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.Vehicle, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM vehicles ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Update leaves the tracker token alone when v.TrackerToken is empty.
func (r *Repo) Update(ctx context.Context, v *models.Vehicle) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE vehicles SET name=$2, plate=$3, capacity=$4,
		        tracker_token=COALESCE(NULLIF($5,''), tracker_token), updated_at=NOW()
		 WHERE id=$1`,
		v.ID, v.Name, v.Plate, v.Capacity, v.TrackerToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecordPing stores the latest position and telemetry status.
func (r *Repo) RecordPing(ctx context.Context, id string, lat, lng float64, status string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE vehicles SET last_lat=$2, last_lng=$3, last_ping_at=$4, telemetry_status=$5, updated_at=NOW()
		 WHERE id=$1`,
		id, lat, lng, at, status)
	return err
}
