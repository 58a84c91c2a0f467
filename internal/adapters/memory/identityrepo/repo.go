package identityrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
)

// Repo is an in-memory implementation of identityrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.IdentityID]identityrepo.Identity
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.IdentityID]identityrepo.Identity),
	}
}

func (r *Repo) Create(ctx context.Context, rec identityrepo.Identity) error {
	_ = ctx
	if rec.ID == "" {
		return identityrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rec.ID]; ok {
		return identityrepo.ErrAlreadyExists
	}
	for _, existing := range r.byID {
		if existing.Email == rec.Email {
			return identityrepo.ErrEmailTaken
		}
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *Repo) Update(ctx context.Context, rec identityrepo.Identity) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rec.ID]; !ok {
		return identityrepo.ErrNotFound
	}
	for id, existing := range r.byID {
		if id != rec.ID && existing.Email == rec.Email {
			return identityrepo.ErrEmailTaken
		}
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.IdentityID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return identityrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.IdentityID) (identityrepo.Identity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return identityrepo.Identity{}, identityrepo.ErrNotFound
	}
	return rec, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (identityrepo.Identity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.byID {
		if rec.Email == email {
			return rec, nil
		}
	}
	return identityrepo.Identity{}, identityrepo.ErrNotFound
}

func (r *Repo) List(ctx context.Context) ([]identityrepo.Identity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]identityrepo.Identity, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	sortIdentities(out)
	return out, nil
}

func (r *Repo) ListByRole(ctx context.Context, role domain.Role) ([]identityrepo.Identity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]identityrepo.Identity, 0)
	for _, rec := range r.byID {
		if rec.Role == role {
			out = append(out, rec)
		}
	}
	sortIdentities(out)
	return out, nil
}

func (r *Repo) CountAll(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *Repo) CountDrivers(ctx context.Context, onlyAvailable bool) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.byID {
		if rec.Role != domain.RoleDriver {
			continue
		}
		if onlyAvailable && !rec.Available {
			continue
		}
		n++
	}
	return n, nil
}

func sortIdentities(recs []identityrepo.Identity) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Name != recs[j].Name {
			return recs[i].Name < recs[j].Name
		}
		return recs[i].ID < recs[j].ID
	})
}
