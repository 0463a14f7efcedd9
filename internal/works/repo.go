package works

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"
)

var _ worksRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const workColumns = `id::text, slug, title, description, year, tags, cover_url, gallery_urls,
	span_class, is_tall, sort_order, created_at, updated_at`

// List returns works in display order, optionally only those carrying tag.
func (r *Repo) List(ctx context.Context, tag string) ([]*Work, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.List")
	span.SetAttributes(attribute.String("tag", tag))
	defer span.End()

	query := `SELECT ` + workColumns + ` FROM works`
	var args []any
	if tag != "" {
		query += ` WHERE $1 = ANY(tags)`
		args = append(args, tag)
	}
	query += ` ORDER BY sort_order ASC, created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	works := []*Work{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}

	return works, rows.Err()
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*Work, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.GetBySlug")
	span.SetAttributes(attribute.String("slug", slug))
	defer span.End()

	row := r.db.QueryRow(ctx, `SELECT `+workColumns+` FROM works WHERE slug = $1`, slug)
	return scanWork(row)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Work, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.GetByID")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrWorkNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+workColumns+` FROM works WHERE id = $1`, id)
	return scanWork(row)
}

func (r *Repo) Create(ctx context.Context, c WorkCreate) (*Work, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.Create")
	span.SetAttributes(attribute.String("slug", c.Slug))
	defer span.End()

	row := r.db.QueryRow(
		ctx,
		`INSERT INTO works (
			id, slug, title, description, year, tags, cover_url, gallery_urls,
			span_class, is_tall, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+workColumns,
		uuid.NewString(), c.Slug, c.Title, c.Description, c.Year, c.Tags, c.CoverURL, c.GalleryURLs,
		c.SpanClass, c.IsTall, c.SortOrder,
	)

	w, err := scanWork(row)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("insert work: %w", err)
	}
	return w, nil
}

// Update writes only the fields present in u and bumps updated_at.
func (r *Repo) Update(ctx context.Context, id string, u WorkUpdate) (*Work, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.Update")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrWorkNotFound
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description.Set {
		set("description", u.Description.Value)
	}
	if u.Year.Set {
		set("year", u.Year.Value)
	}
	if u.Tags != nil {
		set("tags", *u.Tags)
	}
	if u.CoverURL != nil {
		set("cover_url", *u.CoverURL)
	}
	if u.GalleryURLs != nil {
		set("gallery_urls", *u.GalleryURLs)
	}
	if u.SpanClass != nil {
		set("span_class", *u.SpanClass)
	}
	if u.IsTall != nil {
		set("is_tall", *u.IsTall)
	}
	if u.SortOrder != nil {
		set("sort_order", *u.SortOrder)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	row := r.db.QueryRow(
		ctx,
		fmt.Sprintf(`UPDATE works SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), workColumns),
		args...,
	)
	return scanWork(row)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "worksRepo.Delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return ErrWorkNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkNotFound
	}
	return nil
}

func scanWork(row pgx.Row) (*Work, error) {
	var w Work
	if err := row.Scan(
		&w.ID, &w.Slug, &w.Title, &w.Description, &w.Year, &w.Tags, &w.CoverURL, &w.GalleryURLs,
		&w.SpanClass, &w.IsTall, &w.SortOrder, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pkg.IsInvalidTextRepresentationError(err) {
			return nil, ErrWorkNotFound
		}
		return nil, err
	}
	return &w, nil
}
