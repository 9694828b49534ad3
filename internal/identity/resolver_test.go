package identity

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/repo/memory"
)

func newTestResolver(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewResolver(store, zap.NewNop()), store
}

func TestRegister_FirstWins(t *testing.T) {
	r, _ := newTestResolver(t)

	r.Register("Ada Lovelace", "U0ADA")
	r.Register("Ada Lovelace", "U0OTHER") // directory sync must not clobber

	if id, ok := r.Lookup("Ada Lovelace"); !ok || id != "U0ADA" {
		t.Fatalf("got %q, %v; want U0ADA", id, ok)
	}
}

func TestCorrect_AlwaysWinsAndPersists(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	r.Register("Ada Lovelace", "U0WRONG")
	if err := r.Correct(ctx, "Ada Lovelace", "U0RIGHT"); err != nil {
		t.Fatalf("correct: %v", err)
	}
	if id, _ := r.Lookup("Ada Lovelace"); id != "U0RIGHT" {
		t.Fatalf("correction did not win: %q", id)
	}

	// a later directory sync must not undo the correction
	r.Register("Ada Lovelace", "U0WRONG")
	if id, _ := r.Lookup("Ada Lovelace"); id != "U0RIGHT" {
		t.Fatalf("register clobbered correction: %q", id)
	}

	all, _ := store.All(ctx)
	if all["Ada Lovelace"] != "U0RIGHT" {
		t.Fatalf("correction not persisted: %+v", all)
	}
}

func TestSeedOverrides_ReplacesDirectoryEntries(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	r.Register("Alan Turing", "U0STALE")
	_ = store.Put(ctx, "Alan Turing", "U0AMENDED")

	if err := r.SeedOverrides(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if id, _ := r.Lookup("Alan Turing"); id != "U0AMENDED" {
		t.Fatalf("override should replace directory entry, got %q", id)
	}
}

func TestMention(t *testing.T) {
	r, _ := newTestResolver(t)
	r.Register("Grace Hopper", "U0GRACE")

	if got := r.Mention("Grace Hopper"); got != "<@U0GRACE>" {
		t.Fatalf("mention = %q", got)
	}
	if got := r.Mention("Nobody Known"); got != "Nobody Known" {
		t.Fatalf("unresolved mention = %q", got)
	}
}
