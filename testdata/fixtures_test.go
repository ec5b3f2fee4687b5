package testdata

import (
	"testing"

	"github.com/ayusman/mudra/internal/pointer"
)

func TestSequences(t *testing.T) {
	names, err := Sequences()
	if err != nil {
		t.Fatalf("Sequences() error = %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no sequences recorded")
	}

	for _, name := range names {
		events, err := LoadSequence(name)
		if err != nil {
			t.Errorf("LoadSequence(%q) error = %v", name, err)
			continue
		}
		if len(events) == 0 || events[0].Kind != pointer.KindDown {
			t.Errorf("sequence %q does not start with a down event", name)
		}
	}
}

func TestLoadSequence_Missing(t *testing.T) {
	if _, err := LoadSequence("nope"); err == nil {
		t.Error("LoadSequence() error = nil, want error")
	}
}
