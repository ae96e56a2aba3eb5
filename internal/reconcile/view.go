// Package reconcile shows local changes immediately while the engines
// commit them. A View is an authoritative snapshot plus a speculative diff;
// the diff is dropped whenever a newer snapshot arrives.
package reconcile

import (
	"sync"

	"github.com/nickdesi/scba-benevolat/internal/models"
)

type View struct {
	mu       sync.RWMutex
	snapshot []models.Game
	diff     []Mutation
	changed  chan struct{}
}

func NewView() *View {
	return &View{changed: make(chan struct{}, 1)}
}

// Games returns the snapshot with every pending mutation applied. The
// result is a copy the caller may modify.
func (v *View) Games() []models.Game {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]models.Game, len(v.snapshot))
	index := make(map[string]int, len(v.snapshot))
	for i, g := range v.snapshot {
		out[i] = g.Clone()
		index[g.ID] = i
	}
	for _, m := range v.diff {
		if i, ok := index[m.GameID()]; ok {
			m.apply(&out[i])
		}
	}
	return out
}

// Snapshot returns the last authoritative list without local changes.
func (v *View) Snapshot() []models.Game {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Game, len(v.snapshot))
	for i, g := range v.snapshot {
		out[i] = g.Clone()
	}
	return out
}

func (v *View) Apply(m Mutation) {
	v.mu.Lock()
	v.diff = append(v.diff, m)
	v.mu.Unlock()
	v.notify()
}

// Replace installs a newer authoritative snapshot and discards every
// pending mutation.
func (v *View) Replace(snapshot []models.Game) {
	v.mu.Lock()
	v.snapshot = snapshot
	v.diff = nil
	v.mu.Unlock()
	v.notify()
}

// Pending is the number of local mutations not yet superseded.
func (v *View) Pending() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.diff)
}

// Changed is signalled after every Apply or Replace. Signals coalesce.
func (v *View) Changed() <-chan struct{} {
	return v.changed
}

func (v *View) notify() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}
