package tray

import "testing"

func TestTray_Pause(t *testing.T) {
	tr := New()
	if tr.IsPaused() {
		t.Fatal("new tray is paused")
	}

	var got []bool
	tr.OnPause(func(paused bool) { got = append(got, paused) })

	tr.handlePause()
	tr.handlePause()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("OnPause calls = %v, want [true false]", got)
	}
	if tr.IsPaused() {
		t.Error("IsPaused() = true after two toggles")
	}
}

func TestTray_SetPausedDoesNotNotify(t *testing.T) {
	tr := New()
	called := false
	tr.OnPause(func(bool) { called = true })

	tr.SetPaused(true)

	if !tr.IsPaused() {
		t.Error("IsPaused() = false after SetPaused(true)")
	}
	if called {
		t.Error("SetPaused called OnPause")
	}
}

func TestTray_LastGesture(t *testing.T) {
	tr := New()
	tr.SetLastGesture("swipeleft")

	if got := tr.LastGesture(); got != "swipeleft" {
		t.Errorf("LastGesture() = %q, want swipeleft", got)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{pauseTitle(false), "● Active"},
		{pauseTitle(true), "○ Paused"},
		{lastTitle(""), "Last: none"},
		{lastTitle("tap"), "Last: tap"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New()
	tr.handleSettings()

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()
	if !called {
		t.Error("OnSettings callback not called")
	}
}
