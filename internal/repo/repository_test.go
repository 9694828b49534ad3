package repo_test

import (
	"github.com/hamed0406/rosterbot/internal/repo"
	"github.com/hamed0406/rosterbot/internal/repo/memory"
	"github.com/hamed0406/rosterbot/internal/repo/redisdb"
)

// Compile-time checks that both adapters satisfy the port.
var (
	_ repo.OverrideStore = (*memory.Store)(nil)
	_ repo.OverrideStore = (*redisdb.Store)(nil)
)
