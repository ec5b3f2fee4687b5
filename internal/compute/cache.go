package compute

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ayusman/mudra/internal/pointer"
)

// PipelineError reports a metric computer that failed for an input sample.
type PipelineError struct {
	ID      string // factory ID of the failing computer
	InputID string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("compute %q for input %s: %v", e.ID, e.InputID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

type cacheEntry struct {
	id       string
	computer Computer
	refs     int
}

// Cache resolves the distinct set of metric computers required by the
// registered recognizers and runs each exactly once per input.
//
// Cache is not safe for concurrent use; the engine serializes access.
type Cache struct {
	entries []*cacheEntry
	index   map[string]*cacheEntry
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		index: make(map[string]*cacheEntry),
	}
}

// Add registers the factories' computers. A factory whose ID is already
// present reuses the existing computer and only bumps its reference count.
func (c *Cache) Add(factories ...Factory) {
	for _, f := range factories {
		if e, ok := c.index[f.ID]; ok {
			e.refs++
			continue
		}
		e := &cacheEntry{id: f.ID, computer: f.New(), refs: 1}
		c.index[f.ID] = e
		c.entries = append(c.entries, e)
	}
}

// Remove releases one reference per factory and drops computers that are no
// longer referenced.
func (c *Cache) Remove(factories ...Factory) {
	for _, f := range factories {
		e, ok := c.index[f.ID]
		if !ok {
			continue
		}
		e.refs--
		if e.refs > 0 {
			continue
		}
		delete(c.index, f.ID)
		for i, entry := range c.entries {
			if entry == e {
				c.entries = append(c.entries[:i], c.entries[i+1:]...)
				break
			}
		}
	}
}

// Clear drops every computer.
func (c *Cache) Clear() {
	c.entries = nil
	c.index = make(map[string]*cacheEntry)
}

// Len returns the number of distinct computers.
func (c *Cache) Len() int {
	return len(c.entries)
}

// IDs returns the computer IDs in evaluation order.
func (c *Cache) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.id
	}
	return ids
}

// Run computes every registered metric for in and merges the results into a
// single Computed. Rolling state is reset when in opens a new lifecycle.
// The first computer error aborts the run; no partial Computed is returned.
func (c *Cache) Run(in *pointer.Input) (Computed, error) {
	if in.IsLifecycleStart() {
		for _, e := range c.entries {
			e.computer.Reset()
		}
	}

	out := Computed{Input: *in}
	for _, e := range c.entries {
		if err := e.computer.Compute(in, &out); err != nil {
			return Computed{}, errors.WithStack(&PipelineError{ID: e.id, InputID: in.ID, Err: err})
		}
	}
	return out, nil
}
