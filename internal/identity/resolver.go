package identity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/repo"
)

// Resolver maintains the best-effort mapping from real names, as they
// appear in calendar summaries, to messaging-platform identity ids.
//
// Precedence: a live correction always wins and is persisted; directory
// registrations only fill gaps, so a re-sync never clobbers a correction.
type Resolver struct {
	mu        sync.RWMutex
	byName    map[string]string
	overrides repo.OverrideStore
	logger    *zap.Logger
}

func NewResolver(overrides repo.OverrideStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		byName:    make(map[string]string),
		overrides: overrides,
		logger:    logger,
	}
}

// Register records a directory-sourced mapping. The first registration
// for a name wins only if no mapping exists yet.
func (r *Resolver) Register(realName, identityID string) {
	if realName == "" || identityID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[realName]; ok {
		return
	}
	r.byName[realName] = identityID
	r.logger.Info("member_registered", zap.String("name", realName), zap.String("id", identityID))
}

func (r *Resolver) Lookup(realName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[realName]
	return id, ok
}

// Correct applies an explicit override from a correlation reply and
// persists it so it survives a restart.
func (r *Resolver) Correct(ctx context.Context, realName, identityID string) error {
	r.mu.Lock()
	r.byName[realName] = identityID
	r.mu.Unlock()
	if err := r.overrides.Put(ctx, realName, identityID); err != nil {
		return err
	}
	r.logger.Info("member_corrected", zap.String("name", realName), zap.String("id", identityID))
	return nil
}

// SeedOverrides loads the persisted override table; overrides replace any
// directory-sourced mapping already registered.
func (r *Resolver) SeedOverrides(ctx context.Context) error {
	pairs, err := r.overrides.All(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, id := range pairs {
		r.byName[name] = id
		r.logger.Info("override_loaded", zap.String("name", name), zap.String("id", id))
	}
	return nil
}

// Mention renders the name as a platform mention when resolved, or the
// raw name when not.
func (r *Resolver) Mention(realName string) string {
	if id, ok := r.Lookup(realName); ok {
		return "<@" + id + ">"
	}
	return realName
}
