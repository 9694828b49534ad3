package memory

import (
	"context"
	"testing"
)

func TestStore_PutAll(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "Ada Lovelace", "U0ADA"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "Ada Lovelace", "U0ADA2"); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all["Ada Lovelace"] != "U0ADA2" {
		t.Fatalf("last write should win: %+v", all)
	}

	// mutations of the returned map must not leak back into the store
	all["Ada Lovelace"] = "poisoned"
	again, _ := s.All(ctx)
	if again["Ada Lovelace"] != "U0ADA2" {
		t.Fatalf("returned map aliases internal state")
	}
}
