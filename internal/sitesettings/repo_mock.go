package sitesettings

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ settingsRepo = (*RepoMock)(nil)

// RepoMock keeps the settings row in memory. Row stays nil until first read,
// same as an empty table.
type RepoMock struct {
	Row   *Settings
	Err   error
	mutex sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{}
}

func (r *RepoMock) Get(_ context.Context) (*Settings, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	return r.current(), nil
}

func (r *RepoMock) Update(_ context.Context, u Update) (*Settings, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	r.current()
	u.Apply(r.Row)
	r.Row.UpdatedAt = time.Now()
	return r.current(), nil
}

// current returns a copy of the row, creating it on first use.
func (r *RepoMock) current() *Settings {
	if r.Row == nil {
		r.Row = Defaults()
		r.Row.UpdatedAt = time.Now()
	}
	c := *r.Row
	c.SocialLinks = slices.Clone(r.Row.SocialLinks)
	return &c
}
