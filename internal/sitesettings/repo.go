package sitesettings

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
)

var _ settingsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const settingsColumns = `artist_name, artist_subtitle, artist_email, about_text, about_photo_url,
	contact_text, contact_email, social_links, updated_at`

// Get returns the settings row, creating it with defaults when missing.
func (r *Repo) Get(ctx context.Context) (*Settings, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "settingsRepo.Get")
	defer span.End()

	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM site_settings WHERE id = 1`)
	return scanSettings(row)
}

func (r *Repo) Update(ctx context.Context, u Update) (*Settings, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "settingsRepo.Update")
	defer span.End()

	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setString := func(column string, value *string) {
		if value != nil {
			set(column, *value)
		}
	}

	setString("artist_name", u.ArtistName)
	setString("artist_subtitle", u.ArtistSubtitle)
	setString("artist_email", u.ArtistEmail)
	setString("about_text", u.AboutText)
	setString("about_photo_url", u.AboutPhotoURL)
	setString("contact_text", u.ContactText)
	setString("contact_email", u.ContactEmail)
	if u.SocialLinks != nil {
		set("social_links", *u.SocialLinks)
	}
	sets = append(sets, "updated_at = now()")

	row := r.db.QueryRow(
		ctx,
		`UPDATE site_settings SET `+strings.Join(sets, ", ")+` WHERE id = 1 RETURNING `+settingsColumns,
		args...,
	)
	return scanSettings(row)
}

func (r *Repo) ensureRow(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO site_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("ensure settings row: %w", err)
	}
	return nil
}

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	if err := row.Scan(
		&s.ArtistName, &s.ArtistSubtitle, &s.ArtistEmail, &s.AboutText, &s.AboutPhotoURL,
		&s.ContactText, &s.ContactEmail, &s.SocialLinks, &s.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	if s.SocialLinks == nil {
		s.SocialLinks = []SocialLink{}
	}
	return &s, nil
}
