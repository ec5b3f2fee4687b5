package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/recognizer"
)

// newTestStore creates a new Store in a temporary directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestProfileRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &Profile{
		ID: "profile-1",
		Profile: recognizer.Profile{
			Name:            "doubletap",
			Family:          recognizer.FamilyTap,
			TapTimes:        2,
			WaitNextTapTime: recognizer.Int64(400),
		},
	}

	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("profile-1")
	if err != nil {
		t.Fatalf("failed to get profile by ID: %v", err)
	}
	if got.Name != "doubletap" {
		t.Errorf("Name = %q, want %q", got.Name, "doubletap")
	}
	if got.Family != recognizer.FamilyTap {
		t.Errorf("Family = %q, want %q", got.Family, recognizer.FamilyTap)
	}
	if got.TapTimes != 2 || got.WaitNextTapTime == nil || *got.WaitNextTapTime != 400 {
		t.Errorf("params = %d/%v, want 2/400", got.TapTimes, got.WaitNextTapTime)
	}
	if !got.IsEnabled() {
		t.Error("profile without explicit flag should be enabled")
	}

	byName, err := repo.GetByName("doubletap")
	if err != nil {
		t.Fatalf("failed to get profile by name: %v", err)
	}
	if byName.ID != p.ID {
		t.Errorf("GetByName returned ID %q, want %q", byName.ID, p.ID)
	}

	// The stored profile must build a recognizer.
	r, err := recognizer.FromProfile(got.Profile)
	if err != nil {
		t.Fatalf("FromProfile() error = %v", err)
	}
	if r.Name() != "doubletap" {
		t.Errorf("recognizer name = %q, want %q", r.Name(), "doubletap")
	}
}

func TestProfileRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	first := &Profile{ID: "p1", Profile: recognizer.Profile{Name: "pan", Family: recognizer.FamilyPan}}
	second := &Profile{ID: "p2", Profile: recognizer.Profile{Name: "pan", Family: recognizer.FamilyPan}}

	if err := repo.Create(first); err != nil {
		t.Fatalf("failed to create first profile: %v", err)
	}
	if err := repo.Create(second); err == nil {
		t.Error("creating profile with duplicate name should fail")
	}
}

func TestProfileRepository_Create_UnknownFamily(t *testing.T) {
	s := newTestStore(t)

	err := s.Profiles().Create(&Profile{ID: "p1", Profile: recognizer.Profile{Name: "wave", Family: "wave"}})
	if err == nil {
		t.Error("unknown family should violate the family check")
	}
}

func TestProfileRepository_ListInCreationOrder(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	names := []string{"tap", "pan", "press"}
	families := []recognizer.Family{recognizer.FamilyTap, recognizer.FamilyPan, recognizer.FamilyPress}
	for i, name := range names {
		p := &Profile{ID: "p-" + name, Profile: recognizer.Profile{Name: name, Family: families[i]}}
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create profile %q: %v", name, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}
	if len(list) != len(names) {
		t.Fatalf("len(List()) = %d, want %d", len(list), len(names))
	}
	for i, p := range list {
		if p.Name != names[i] {
			t.Errorf("List()[%d].Name = %q, want %q", i, p.Name, names[i])
		}
	}
}

func TestProfileRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &Profile{ID: "p1", Profile: recognizer.Profile{Name: "press", Family: recognizer.FamilyPress}}
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	originalUpdatedAt := p.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	disabled := false
	p.Name = "longpress"
	p.MinPressTime = recognizer.Int64(800)
	p.Enabled = &disabled
	if err := repo.Update(p); err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}

	got, err := repo.GetByID("p1")
	if err != nil {
		t.Fatalf("failed to get profile after update: %v", err)
	}
	if got.Name != "longpress" {
		t.Errorf("Name = %q, want %q", got.Name, "longpress")
	}
	if got.MinPressTime == nil || *got.MinPressTime != 800 {
		t.Errorf("MinPressTime = %v, want 800", got.MinPressTime)
	}
	if got.IsEnabled() {
		t.Error("profile should be disabled after update")
	}
	if !got.UpdatedAt.After(originalUpdatedAt) {
		t.Error("UpdatedAt should be updated after Update")
	}
}

func TestProfileRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if _, err := repo.GetByID("missing"); err != ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByName("missing"); err != ErrNotFound {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); err != ErrNotFound {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	p := &Profile{ID: "missing", Profile: recognizer.Profile{Name: "x", Family: recognizer.FamilyPan}}
	if err := repo.Update(p); err != ErrNotFound {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &Profile{ID: "p1", Profile: recognizer.Profile{Name: "swipe", Family: recognizer.FamilySwipe}}
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := repo.Delete("p1"); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}
	if _, err := repo.GetByID("p1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}
