package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
)

var ErrAdminNotFound = errors.New("admin not found")

var _ adminRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const adminColumns = `id, email, password_hash, is_active, created_at`

func (r *Repo) FindActiveAdminByID(ctx context.Context, id int64) (*Admin, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authRepo.FindActiveAdminByID")
	span.SetAttributes(attribute.Int64("id", id))
	defer span.End()

	row := r.db.QueryRow(
		ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE id = $1 AND is_active = TRUE`,
		id,
	)
	return scanAdmin(row)
}

func (r *Repo) FindActiveAdminByEmail(ctx context.Context, email string) (*Admin, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authRepo.FindActiveAdminByEmail")
	defer span.End()

	row := r.db.QueryRow(
		ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE email = $1 AND is_active = TRUE`,
		email,
	)
	return scanAdmin(row)
}

// CreateAdminIfMissing inserts the admin unless one with the same email exists.
// An existing row is left untouched, including its password and active flag.
func (r *Repo) CreateAdminIfMissing(ctx context.Context, email, passwordHash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(
		ctx,
		`INSERT INTO admin_users (email, password_hash, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`,
		strings.TrimSpace(email), passwordHash,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}

// SetActive flips the active flag. Deactivated admins lose access on their
// next request, even with a valid session cookie.
func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE admin_users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	var admin Admin
	if err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}
