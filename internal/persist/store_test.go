package persist

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "records.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetAssembly(t *testing.T) {
	s := newTestStore(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &Assembly{
		ID:          "a-1",
		Preset:      "extract",
		RequestJSON: `{"instruction":"x"}`,
		PayloadJSON: `[{"type":"text","text":"## Instruction\nx"}]`,
		ItemCount:   1,
		CreatedAt:   created,
	}
	if err := s.SaveAssembly(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetAssembly("a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Preset != "extract" || got.PayloadJSON != in.PayloadJSON || got.ItemCount != 1 {
		t.Fatalf("unexpected assembly: %#v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, got.CreatedAt)
	}

	if err := s.SaveAssembly(in); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := s.SaveAssembly(&Assembly{}); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestGetAssemblyNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAssembly("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAssembliesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := s.SaveAssembly(&Assembly{
			ID:          id,
			RequestJSON: "{}",
			PayloadJSON: "[]",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	list, err := s.ListAssemblies(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "mid" {
		t.Fatalf("unexpected order: %v", ids(list))
	}
}

func TestPruneBefore(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, a := range []*Assembly{
		{ID: "ancient", CreatedAt: now.AddDate(0, 0, -30)},
		{ID: "recent", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "fresh"},
	} {
		a.RequestJSON, a.PayloadJSON = "{}", "[]"
		if err := s.SaveAssembly(a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}

	n, err := s.PruneBefore(now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	list, err := s.ListAssemblies(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 remaining, got %v", ids(list))
	}
}

func ids(list []*Assembly) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}
