package service

import (
	"context"
	"sync"

	"movietrack/internal/model"
	"movietrack/internal/queue"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// mockUserRepository lets each test script the store's answers. Unset
// functions fall back to "not found" / no-op behaviour.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
	updateListsFn   func(ctx context.Context, user *model.User) error
	updateAvatarFn  func(ctx context.Context, id, url string) error

	createCalls      []*model.User
	updateListsCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateLists(ctx context.Context, user *model.User) error {
	m.updateListsCalls++
	if m.updateListsFn != nil {
		return m.updateListsFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	if m.updateAvatarFn != nil {
		return m.updateAvatarFn(ctx, id, url)
	}
	return nil
}

// =============================================================================
// IN-MEMORY REPOSITORY
// =============================================================================
//
// memoryUserRepository behaves like a real store: reads return copies and
// UpdateLists overwrites the stored lists. afterGet, when set, runs after
// every GetByID so tests can interleave concurrent read-modify-writes.

type memoryUserRepository struct {
	mu       sync.Mutex
	users    map[string]*model.User
	afterGet func()
	writes   int
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[string]*model.User{}}
}

func cloneUser(u *model.User) *model.User {
	out := *u
	out.WatchList = append([]string(nil), u.WatchList...)
	out.CurrentlyWatching = append([]string(nil), u.CurrentlyWatching...)
	out.WatchedMovies = append([]model.WatchedEntry(nil), u.WatchedMovies...)
	return &out
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return model.ErrEmailExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	u, ok := r.users[id]
	var out *model.User
	if ok {
		out = cloneUser(u)
	}
	r.mu.Unlock()

	if r.afterGet != nil {
		r.afterGet()
	}
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return out, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memoryUserRepository) UpdateLists(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	c := cloneUser(user)
	stored.WatchList = c.WatchList
	stored.CurrentlyWatching = c.CurrentlyWatching
	stored.WatchedMovies = c.WatchedMovies
	r.writes++
	return nil
}

func (r *memoryUserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	stored.AvatarURL = &url
	return nil
}

// =============================================================================
// MOCK PUBLISHER
// =============================================================================

type mockPublisher struct {
	mu     sync.Mutex
	events []queue.ListEvent
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, stream string, event queue.ListEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}
