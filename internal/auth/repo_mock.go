package auth

import (
	"context"
	"sync"
	"time"
)

var _ adminRepo = (*RepoMock)(nil)

// RepoMock is an in-memory admin store for tests.
type RepoMock struct {
	Admins map[int64]*Admin
	nextID int64
	mutex  sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Admins: make(map[int64]*Admin),
		nextID: 1,
	}
}

// Add stores the admin and returns its id.
func (r *RepoMock) Add(email, passwordHash string, active bool) int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := r.nextID
	r.nextID++
	r.Admins[id] = &Admin{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     active,
		CreatedAt:    time.Now(),
	}
	return id
}

func (r *RepoMock) SetActive(_ context.Context, id int64, active bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	admin, ok := r.Admins[id]
	if !ok {
		return ErrAdminNotFound
	}
	admin.IsActive = active
	return nil
}

func (r *RepoMock) FindActiveAdminByID(_ context.Context, id int64) (*Admin, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	admin, ok := r.Admins[id]
	if !ok || !admin.IsActive {
		return nil, ErrAdminNotFound
	}
	found := *admin
	return &found, nil
}

func (r *RepoMock) FindActiveAdminByEmail(_ context.Context, email string) (*Admin, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, admin := range r.Admins {
		if admin.Email == email && admin.IsActive {
			found := *admin
			return &found, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (r *RepoMock) CreateAdminIfMissing(_ context.Context, email, passwordHash string) (bool, error) {
	r.mutex.Lock()
	for _, admin := range r.Admins {
		if admin.Email == email {
			r.mutex.Unlock()
			return false, nil
		}
	}
	r.mutex.Unlock()

	r.Add(email, passwordHash, true)
	return true, nil
}
