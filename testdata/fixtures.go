// Package testdata provides recorded raw pointer sequences for end-to-end
// tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/pointer"
)

//go:embed sequences/*.json
var sequencesFS embed.FS

// LoadSequence loads the raw pointer events recorded under name.
func LoadSequence(name string) ([]pointer.RawEvent, error) {
	data, err := sequencesFS.ReadFile(path.Join("sequences", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	var events []pointer.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode sequence %s: %w", name, err)
	}
	return events, nil
}

// Sequences returns the names of every recorded sequence, sorted.
func Sequences() ([]string, error) {
	entries, err := sequencesFS.ReadDir("sequences")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
