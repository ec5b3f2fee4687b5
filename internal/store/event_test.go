package store

import (
	"encoding/json"
	"testing"
)

func TestEventRepository_CreateAndRecent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	records := []*EventRecord{
		{Type: "panstart", BaseType: "pan", Stage: "move", X: 10, Y: 20, PointLength: 1},
		{Type: "tap", BaseType: "tap", Stage: "end", X: 5, Y: 5, Data: json.RawMessage(`{"tapCount":2}`)},
		{Type: "panend", BaseType: "pan", Stage: "end", X: 40, Y: 20},
	}
	for _, r := range records {
		if err := repo.Create(r); err != nil {
			t.Fatalf("failed to record event %q: %v", r.Type, err)
		}
		if r.ID == 0 {
			t.Errorf("event %q should get an ID", r.Type)
		}
	}

	recent, err := repo.Recent("", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(Recent()) = %d, want 2", len(recent))
	}
	if recent[0].Type != "panend" || recent[1].Type != "tap" {
		t.Errorf("Recent() = [%s %s], want [panend tap]", recent[0].Type, recent[1].Type)
	}
	if string(recent[1].Data) != `{"tapCount":2}` {
		t.Errorf("Data = %s, want %s", recent[1].Data, `{"tapCount":2}`)
	}

	pans, err := repo.Recent("pan", 10)
	if err != nil {
		t.Fatalf("Recent(pan) error = %v", err)
	}
	if len(pans) != 2 {
		t.Errorf("len(Recent(pan)) = %d, want 2", len(pans))
	}
}

func TestEventRepository_Prune(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	for i := 0; i < 5; i++ {
		if err := repo.Create(&EventRecord{Type: "tap", BaseType: "tap", Stage: "end"}); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	removed, err := repo.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed %d, want 3", removed)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("paused"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := repo.Set("paused", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("paused", "false"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	v, err := repo.Get("paused")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "false" {
		t.Errorf("Get() = %q, want %q", v, "false")
	}
}
