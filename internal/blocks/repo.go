package blocks

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,title,starts_at,ends_at,scope,driver_id,vehicle_id,notes,created_at`

type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Block, error) {
	var b models.Block
	if err := row.Scan(&b.ID, &b.Title, &b.Start, &b.End, &b.Scope,
		&b.DriverID, &b.VehicleID, &b.Notes, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Create(ctx context.Context, b *models.Block) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO blocks (id,title,starts_at,ends_at,scope,driver_id,vehicle_id,notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at`,
		b.ID, b.Title, b.Start, b.End, b.Scope, b.DriverID, b.VehicleID, b.Notes,
	).Scan(&b.CreatedAt)
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Block, error) {
	b, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM blocks WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return b, err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]models.Block, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Scope != "" {
		add("scope=?", f.Scope)
	}
	if !f.From.IsZero() {
		add("ends_at>?", f.From)
	}
	if !f.To.IsZero() {
		add("starts_at<?", f.To)
	}

	q := `SELECT ` + columns + ` FROM blocks`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	q += ` ORDER BY starts_at LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Block
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, b *models.Block) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE blocks SET title=$2, starts_at=$3, ends_at=$4, scope=$5, driver_id=$6, vehicle_id=$7, notes=$8
		 WHERE id=$1`,
		b.ID, b.Title, b.Start, b.End, b.Scope, b.DriverID, b.VehicleID, b.Notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM blocks WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
