package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

// Repo is the Postgres implementation of Store plus the assignment log.
// Build it on a transaction so the driver row locks last until commit.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

// ActiveDriversForUpdate locks every active driver row. Concurrent bookings
// therefore read loads and write their decision one at a time.
func (r *Repo) ActiveDriversForUpdate(ctx context.Context) ([]models.Driver, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id,name,email,phone,status,work_mode,pay_type,pay_rate,notify_email,notify_sms,created_at,updated_at
		 FROM drivers WHERE status=$1
		 ORDER BY created_at, id
		 FOR UPDATE`, models.DriverActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Status, &d.WorkMode,
			&d.PayType, &d.PayRate, &d.NotifyEmail, &d.NotifySMS, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) ShiftsForDrivers(ctx context.Context, driverIDs []string) (map[string][]models.DriverShift, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id,driver_id,weekday,specific_date,start_time,end_time,timezone,created_at
		 FROM driver_shifts WHERE driver_id = ANY($1::uuid[])`, driverIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.DriverShift)
	for rows.Next() {
		var s models.DriverShift
		if err := rows.Scan(&s.ID, &s.DriverID, &s.Weekday, &s.SpecificDate,
			&s.StartTime, &s.EndTime, &s.Timezone, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.DriverID] = append(out[s.DriverID], s)
	}
	return out, rows.Err()
}

// DriverLoads counts open appointments per driver with pickup in [from, to).
func (r *Repo) DriverLoads(ctx context.Context, driverIDs []string, from, to time.Time, excludeAppointmentID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT driver_id, COUNT(*)
		 FROM appointments
		 WHERE driver_id = ANY($1::uuid[])
		   AND status = ANY($2::text[])
		   AND pickup_time >= $3 AND pickup_time < $4
		   AND id::text <> $5
		 GROUP BY driver_id`,
		driverIDs, OpenStatuses, from, to, excludeAppointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int, len(driverIDs))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// InsertLog appends one decision. driverID is nil for a rejection.
func (r *Repo) InsertLog(ctx context.Context, appointmentID string, driverID *string, trace []byte) (*models.AssignmentLog, error) {
	l := &models.AssignmentLog{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		DriverID:      driverID,
		RuleTrace:     trace,
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO assignment_logs (id,appointment_id,driver_id,rule_trace)
		 VALUES ($1,$2,$3,$4) RETURNING created_at`,
		l.ID, l.AppointmentID, l.DriverID, string(trace)).Scan(&l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListLogs returns every decision recorded for an appointment, oldest first.
func (r *Repo) ListLogs(ctx context.Context, appointmentID string) ([]models.AssignmentLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id,appointment_id,driver_id,rule_trace::text,created_at
		 FROM assignment_logs WHERE appointment_id=$1 ORDER BY created_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssignmentLog
	for rows.Next() {
		var l models.AssignmentLog
		var trace string
		if err := rows.Scan(&l.ID, &l.AppointmentID, &l.DriverID, &trace, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.RuleTrace = []byte(trace)
		out = append(out, l)
	}
	return out, rows.Err()
}
