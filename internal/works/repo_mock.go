package works

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ worksRepo = (*RepoMock)(nil)

// RepoMock is an in-memory works store for tests.
type RepoMock struct {
	Works map[string]*Work
	mutex sync.Mutex
	now   func() time.Time
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Works: make(map[string]*Work),
		now:   time.Now,
	}
}

func (r *RepoMock) List(_ context.Context, tag string) ([]*Work, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	list := []*Work{}
	for _, w := range r.Works {
		if tag != "" && !slices.Contains(w.Tags, tag) {
			continue
		}
		c := *w
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *RepoMock) GetBySlug(_ context.Context, slug string) (*Work, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, w := range r.Works {
		if w.Slug == slug {
			c := *w
			return &c, nil
		}
	}
	return nil, ErrWorkNotFound
}

func (r *RepoMock) GetByID(_ context.Context, id string) (*Work, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Works[id]
	if !ok {
		return nil, ErrWorkNotFound
	}
	c := *w
	return &c, nil
}

func (r *RepoMock) Create(_ context.Context, c WorkCreate) (*Work, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, w := range r.Works {
		if w.Slug == c.Slug {
			return nil, ErrSlugExists
		}
	}

	now := r.now()
	w := &Work{
		ID:          uuid.NewString(),
		Slug:        c.Slug,
		Title:       c.Title,
		Description: c.Description,
		Year:        c.Year,
		Tags:        c.Tags,
		CoverURL:    c.CoverURL,
		GalleryURLs: c.GalleryURLs,
		SpanClass:   c.SpanClass,
		IsTall:      c.IsTall,
		SortOrder:   c.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.Works[w.ID] = w

	res := *w
	return &res, nil
}

func (r *RepoMock) Update(_ context.Context, id string, u WorkUpdate) (*Work, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Works[id]
	if !ok {
		return nil, ErrWorkNotFound
	}
	u.Apply(w)
	w.UpdatedAt = r.now()

	res := *w
	return &res, nil
}

func (r *RepoMock) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Works[id]; !ok {
		return ErrWorkNotFound
	}
	delete(r.Works, id)
	return nil
}
