package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"booking-service/internal/models"
	"booking-service/pkg/db"
)

const columns = `id,name,phone,email,notes,default_pickup_address,rating,created_at,updated_at`

// Repo is the Postgres client table. It runs on the pool or inside a transaction.
type Repo struct {
	db db.DBTX
}

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

func scan(row interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes,
		&c.DefaultPickupAddress, &c.Rating, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByEmail matches case-insensitively. A miss returns (nil, nil).
func (r *Repo) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	c, err := scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM clients WHERE lower(email)=lower($1) ORDER BY created_at LIMIT 1`,
		strings.TrimSpace(email)))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return c, err
}

// FindByPhone returns (nil, nil) on a miss.
func (r *Repo) FindByPhone(ctx context.Context, phone string) (*models.Client, error) {
	c, err := scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM clients WHERE phone=$1 ORDER BY created_at LIMIT 1`,
		strings.TrimSpace(phone)))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return c, err
}

func (r *Repo) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Rating == "" {
		c.Rating = models.RatingNew
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO clients (id,name,phone,email,notes,default_pickup_address,rating)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at,updated_at`,
		c.ID, c.Name, c.Phone, c.Email, c.Notes, c.DefaultPickupAddress, c.Rating,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertByEmail inserts c unless a client with the same email (any case)
// exists, and returns whichever row holds the email afterwards. The no-op
// DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *Repo) UpsertByEmail(ctx context.Context, c *models.Client) (*models.Client, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Rating == "" {
		c.Rating = models.RatingNew
	}
	return scan(r.db.QueryRow(ctx,
		`INSERT INTO clients (id,name,phone,email,notes,default_pickup_address,rating)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT ((lower(email))) WHERE email IS NOT NULL
		 DO UPDATE SET updated_at = clients.updated_at
		 RETURNING `+columns,
		c.ID, c.Name, c.Phone, c.Email, c.Notes, c.DefaultPickupAddress, c.Rating))
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Client, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM clients WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return nil, nil
	}
	return c, err
}

// List filters by a case-insensitive substring of name, email or phone when q is set.
func (r *Repo) List(ctx context.Context, q string, limit, offset int) ([]models.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM clients
		 WHERE $1 = '' OR name ILIKE '%'||$1||'%' OR email ILIKE '%'||$1||'%' OR phone ILIKE '%'||$1||'%'
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields and reports whether the row existed.
func (r *Repo) Update(ctx context.Context, c *models.Client) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE clients SET name=$1, phone=$2, email=$3, notes=$4, default_pickup_address=$5, rating=$6, updated_at=NOW()
		 WHERE id=$7`,
		c.Name, c.Phone, c.Email, c.Notes, c.DefaultPickupAddress, c.Rating, c.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
