package works

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrWorkNotFound = errors.New("work not found")
	ErrSlugExists   = errors.New("slug already exists")

	ErrInvalidSlug = errors.New("slug must be 3-120 chars, only a-z 0-9 and hyphens, must start/end with alphanumeric")
	ErrInvalidYear = errors.New("year must be between 1900 and 2100")
	ErrEmptyTitle  = errors.New("title is required")
)

const DefaultSpanClass = "span-4"

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,118}[a-z0-9]$`)

type Work struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Year        *int      `json:"year"`
	Tags        []string  `json:"tags"`
	CoverURL    string    `json:"cover_url"`
	GalleryURLs []string  `json:"gallery_urls"`
	SpanClass   string    `json:"span_class"`
	IsTall      bool      `json:"is_tall"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListItem is the public grid entry for a work.
type ListItem struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	CoverURL  string   `json:"cover_url"`
	Tags      []string `json:"tags"`
	Year      *int     `json:"year"`
	SpanClass string   `json:"span_class"`
	IsTall    bool     `json:"is_tall"`
	SortOrder int      `json:"sort_order"`
}

func (w *Work) ListItem() ListItem {
	return ListItem{
		ID:        w.ID,
		Slug:      w.Slug,
		Title:     w.Title,
		CoverURL:  w.CoverURL,
		Tags:      w.Tags,
		Year:      w.Year,
		SpanClass: w.SpanClass,
		IsTall:    w.IsTall,
		SortOrder: w.SortOrder,
	}
}

// NormalizeSlug trims and lowercases the slug and checks its shape.
func NormalizeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRegex.MatchString(slug) {
		return "", ErrInvalidSlug
	}
	return slug, nil
}

func validateYear(year *int) error {
	if year != nil && (*year < 1900 || *year > 2100) {
		return ErrInvalidYear
	}
	return nil
}

type WorkCreate struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description *string  `json:"description"`
	Year        *int     `json:"year"`
	Tags        []string `json:"tags"`
	CoverURL    string   `json:"cover_url"`
	GalleryURLs []string `json:"gallery_urls"`
	SpanClass   string   `json:"span_class"`
	IsTall      bool     `json:"is_tall"`
	SortOrder   int      `json:"sort_order"`
}

// Normalize validates the new work and fills in defaults.
func (c *WorkCreate) Normalize() error {
	slug, err := NormalizeSlug(c.Slug)
	if err != nil {
		return err
	}
	c.Slug = slug

	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return ErrEmptyTitle
	}
	if err := validateYear(c.Year); err != nil {
		return err
	}

	if c.SpanClass == "" {
		c.SpanClass = DefaultSpanClass
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.GalleryURLs == nil {
		c.GalleryURLs = []string{}
	}
	return nil
}

// Optional tells an absent JSON field apart from an explicit null.
type Optional[T any] struct {
	Value *T
	Set   bool
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// WorkUpdate carries a partial update. Nil pointers are left untouched; a null
// is only meaningful for description and year, which are nullable.
// The slug is fixed once a work exists.
type WorkUpdate struct {
	Title       *string          `json:"title"`
	Description Optional[string] `json:"description"`
	Year        Optional[int]    `json:"year"`
	Tags        *[]string        `json:"tags"`
	CoverURL    *string          `json:"cover_url"`
	GalleryURLs *[]string        `json:"gallery_urls"`
	SpanClass   *string          `json:"span_class"`
	IsTall      *bool            `json:"is_tall"`
	SortOrder   *int             `json:"sort_order"`
}

func (u *WorkUpdate) Validate() error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		u.Title = &title
	}
	if u.Year.Set {
		if err := validateYear(u.Year.Value); err != nil {
			return err
		}
	}
	if u.Tags != nil && *u.Tags == nil {
		u.Tags = &[]string{}
	}
	if u.GalleryURLs != nil && *u.GalleryURLs == nil {
		u.GalleryURLs = &[]string{}
	}
	return nil
}

// Apply copies the provided fields onto w.
func (u *WorkUpdate) Apply(w *Work) {
	if u.Title != nil {
		w.Title = *u.Title
	}
	if u.Description.Set {
		w.Description = u.Description.Value
	}
	if u.Year.Set {
		w.Year = u.Year.Value
	}
	if u.Tags != nil {
		w.Tags = *u.Tags
	}
	if u.CoverURL != nil {
		w.CoverURL = *u.CoverURL
	}
	if u.GalleryURLs != nil {
		w.GalleryURLs = *u.GalleryURLs
	}
	if u.SpanClass != nil {
		w.SpanClass = *u.SpanClass
	}
	if u.IsTall != nil {
		w.IsTall = *u.IsTall
	}
	if u.SortOrder != nil {
		w.SortOrder = *u.SortOrder
	}
}
