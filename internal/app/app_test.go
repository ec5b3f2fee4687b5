package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/handtrack"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-app-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func testSettings(t *testing.T) *config.Config {
	t.Helper()
	settings := config.Default()
	settings.DataDir = t.TempDir()
	return settings
}

func newTestApp(t *testing.T, s *store.Store, settings *config.Config) *App {
	t.Helper()

	a, err := New(Config{Settings: settings, Store: s})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// tap feeds one single-finger tap at (x, y) into e.
func tap(t *testing.T, e *engine.Engine, x, y float64, ts int64) {
	t.Helper()

	b := pointer.NewBuilder()
	for _, ev := range []pointer.RawEvent{
		{Kind: pointer.KindDown, Pointers: []pointer.RawPointer{{ID: 1, X: x, Y: y}}, Timestamp: ts},
		{Kind: pointer.KindUp, Pointers: []pointer.RawPointer{{ID: 1, X: x, Y: y}}, Timestamp: ts + 50},
	} {
		in, err := b.Build(ev)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if err := e.Process(in); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
}

func waitEvent(t *testing.T, ch <-chan engine.Event) engine.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return engine.Event{}
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoStore) {
		t.Errorf("New() error = %v, want %v", err, ErrNoStore)
	}
}

func TestNew_Recognizers(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := newTestApp(t, newTestStore(t), testSettings(t))
		if got := len(a.Engine().Recognizers()); got != len(recognizer.Families) {
			t.Errorf("len(Recognizers()) = %d, want %d", got, len(recognizer.Families))
		}
	})

	t.Run("configured set replaces defaults", func(t *testing.T) {
		settings := testSettings(t)
		settings.Recognizers = []recognizer.Profile{
			{Family: recognizer.FamilyPress},
			{Name: "doubletap", Family: recognizer.FamilyTap, TapTimes: 2},
		}
		a := newTestApp(t, newTestStore(t), settings)

		var names []string
		for _, r := range a.Engine().Recognizers() {
			names = append(names, r.Name())
		}
		if len(names) != 2 || names[0] != "press" || names[1] != "doubletap" {
			t.Errorf("Recognizers() = %v, want [press doubletap]", names)
		}
	})

	t.Run("stored profile replaces same name", func(t *testing.T) {
		s := newTestStore(t)
		err := s.Profiles().Create(&store.Profile{
			ID:      "p1",
			Profile: recognizer.Profile{Name: "tap", Family: recognizer.FamilyTap, TapTimes: 2},
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		a := newTestApp(t, s, testSettings(t))
		if got := len(a.Engine().Recognizers()); got != len(recognizer.Families) {
			t.Errorf("len(Recognizers()) = %d, want %d", got, len(recognizer.Families))
		}

		events := make(chan engine.Event, 8)
		sub := a.Engine().On("tap", func(ev engine.Event) { events <- ev })
		defer sub.Remove()

		tap(t, a.Engine(), 100, 100, 1000)
		if len(events) != 0 {
			t.Error("single tap recognized by a double-tap profile")
		}
		tap(t, a.Engine(), 100, 100, 1100)
		if len(events) != 1 {
			t.Errorf("got %d tap events after second tap, want 1", len(events))
		}
	})
}

func TestApp_Pipeline(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, s, testSettings(t))

	handled := make(chan engine.Event, 8)
	a.OnEvent(func(ev engine.Event) { handled <- ev })

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tap(t, a.Engine(), 100, 100, 1000)

	ev := waitEvent(t, handled)
	if ev.Type != "tap" {
		t.Fatalf("handled %q, want tap", ev.Type)
	}

	last, ok := a.LastEvent()
	if !ok || last.Type != "tap" {
		t.Errorf("LastEvent() = %q, %v, want tap, true", last.Type, ok)
	}

	records, err := s.Events().Recent("tap", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].X != 100 || records[0].Stage != string(pointer.StageEnd) {
		t.Errorf("record = %+v, want x 100 at end stage", records[0])
	}

	a.Stop()
	a.Stop()
}

func TestApp_HistoryDisabled(t *testing.T) {
	s := newTestStore(t)
	settings := testSettings(t)
	settings.History.Enabled = false
	a := newTestApp(t, s, settings)

	handled := make(chan engine.Event, 8)
	a.OnEvent(func(ev engine.Event) { handled <- ev })
	a.Start(context.Background())

	tap(t, a.Engine(), 100, 100, 1000)
	waitEvent(t, handled)

	if n, _ := s.Events().Count(); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestApp_Pause(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, s, testSettings(t))

	handled := make(chan engine.Event, 8)
	a.OnEvent(func(ev engine.Event) { handled <- ev })
	a.Start(context.Background())

	a.SetPaused(true)
	if !a.IsPaused() {
		t.Fatal("IsPaused() = false after SetPaused(true)")
	}

	tap(t, a.Engine(), 100, 100, 1000)
	select {
	case ev := <-handled:
		t.Fatalf("handled %q while paused", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}

	// The pause state survives a restart.
	b := newTestApp(t, s, testSettings(t))
	if !b.IsPaused() {
		t.Error("pause state not restored")
	}

	a.SetPaused(false)
	tap(t, a.Engine(), 100, 100, 2000)
	if ev := waitEvent(t, handled); ev.Type != "tap" {
		t.Errorf("handled %q after resume, want tap", ev.Type)
	}
}

func TestApp_HandTracking(t *testing.T) {
	settings := testSettings(t)
	settings.Camera.Enabled = true
	settings.Camera.Smooth = false

	detector := handtrack.NewMockDetector()
	detector.SetScript(
		[]handtrack.Hand{handtrack.OpenHand(0.5, 0.5)},
		[]handtrack.Hand{handtrack.PinchedHand(0.5, 0.5)},
		[]handtrack.Hand{handtrack.OpenHand(0.5, 0.5)},
	)
	camera := handtrack.NewBlankCamera(64, 48)
	clock := timeutil.NewMockClock(time.Unix(1000, 0))

	a, err := New(Config{
		Settings: settings,
		Store:    newTestStore(t),
		Camera:   camera,
		Detector: detector,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Camera() != camera {
		t.Error("Camera() does not return the configured camera")
	}

	handled := make(chan engine.Event, 8)
	a.OnEvent(func(ev engine.Event) { handled <- ev })
	a.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		clock.Advance(time.Second / 30)
		select {
		case ev := <-handled:
			if ev.Type != "tap" {
				t.Fatalf("handled %q, want tap", ev.Type)
			}
			if ev.X != 320 || ev.Y != 240 {
				t.Errorf("tap at (%f, %f), want (320, 240)", ev.X, ev.Y)
			}
			return
		case <-deadline:
			t.Fatal("no tap from hand tracking")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
