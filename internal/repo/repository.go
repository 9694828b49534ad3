package repo

import "context"

// Ports (interfaces) — swap in any store adapter later.

// OverrideStore persists amended name→identity pairs so that live
// corrections survive a restart. All reads pull the full namespace at
// once; writes are one pair at a time.
type OverrideStore interface {
	All(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, realName, identityID string) error
}
