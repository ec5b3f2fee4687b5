package engine

import (
	"sync"

	"github.com/ayusman/mudra/internal/recognizer"
)

var (
	defaultsMu sync.Mutex
	defaults   []recognizer.Profile
)

func init() {
	for _, f := range recognizer.Families {
		defaults = append(defaults, recognizer.Profile{Family: f})
	}
}

// Use adds profiles to the default registry. New engines that do not opt out
// get one recognizer per default profile. A profile whose name is already in
// the registry replaces it.
func Use(profiles ...recognizer.Profile) error {
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	for _, p := range profiles {
		name := profileName(p)
		replaced := false
		for i, cur := range defaults {
			if profileName(cur) == name {
				defaults[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			defaults = append(defaults, p)
		}
	}
	return nil
}

// RemoveUse drops the named profiles from the default registry, or every
// profile when no name is given.
func RemoveUse(names ...string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if len(names) == 0 {
		defaults = nil
		return
	}
	kept := defaults[:0]
	for _, p := range defaults {
		drop := false
		for _, name := range names {
			if profileName(p) == name {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, p)
		}
	}
	defaults = kept
}

// DefaultProfiles returns a copy of the default registry.
func DefaultProfiles() []recognizer.Profile {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	out := make([]recognizer.Profile, len(defaults))
	copy(out, defaults)
	return out
}

func defaultRecognizers() []recognizer.Recognizer {
	var out []recognizer.Recognizer
	for _, p := range DefaultProfiles() {
		r, err := recognizer.FromProfile(p)
		if err != nil {
			Logf("engine: skip default profile %q: %v", profileName(p), err)
			continue
		}
		out = append(out, r)
	}
	return out
}

func profileName(p recognizer.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.Family)
}
