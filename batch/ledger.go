package batch

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/lepinkainen/tinyimg/photo"
)

// ErrIndexOutOfRange is returned by index based operations past the ledger end
var ErrIndexOutOfRange = errors.New("index out of range")

// ItemID identifies a ledger item for its whole lifetime, independent of its
// current position
type ItemID = uuid.UUID

// Status is the derived state of a single slot
type Status int

const (
	StatusPending Status = iota
	StatusInFlight
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInFlight:
		return "processing"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type slot struct {
	id     ItemID
	source photo.SourceFile
	result *photo.ResultFile
	err    error
}

// Ledger is the authoritative store of a batch: the ordered sources, one
// result slot per source and the set of items currently being compressed.
// All methods are safe for concurrent use; a Snapshot never observes a
// half-applied mutation.
type Ledger struct {
	mu       sync.RWMutex
	slots    []slot
	inFlight map[ItemID]struct{}
	version  uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		inFlight: make(map[ItemID]struct{}),
		subs:     make(map[int]chan struct{}),
	}
}

// Append adds files with empty result slots and returns their indices
func (l *Ledger) Append(files []photo.SourceFile) []int {
	indices, _ := l.AppendWithIDs(files)
	return indices
}

// AppendWithIDs is Append that also returns the stable IDs of the new items
func (l *Ledger) AppendWithIDs(files []photo.SourceFile) ([]int, []ItemID) {
	if len(files) == 0 {
		return nil, nil
	}

	l.mu.Lock()
	indices := make([]int, len(files))
	ids := make([]ItemID, len(files))
	for i, f := range files {
		id := uuid.New()
		indices[i] = len(l.slots)
		ids[i] = id
		l.slots = append(l.slots, slot{id: id, source: f})
	}
	l.version++
	l.mu.Unlock()

	l.notify()
	return indices, ids
}

// RecordResult fills the slot of id. The first write wins: it reports false
// when the item no longer exists or its slot is already filled.
func (l *Ledger) RecordResult(id ItemID, r photo.ResultFile) bool {
	l.mu.Lock()
	i := l.indexOfLocked(id)
	if i < 0 || l.slots[i].result != nil {
		l.mu.Unlock()
		return false
	}
	res := r
	l.slots[i].result = &res
	l.slots[i].err = nil
	delete(l.inFlight, id)
	l.version++
	l.mu.Unlock()

	l.notify()
	return true
}

// RecordResultAt resolves the item currently at index and fills its slot.
// Out of range indices are ignored.
func (l *Ledger) RecordResultAt(index int, r photo.ResultFile) bool {
	l.mu.RLock()
	if index < 0 || index >= len(l.slots) {
		l.mu.RUnlock()
		return false
	}
	id := l.slots[index].id
	l.mu.RUnlock()

	return l.RecordResult(id, r)
}

// RecordFailure marks id as permanently failed for this batch. Filled slots
// and unknown items are left alone.
func (l *Ledger) RecordFailure(id ItemID, cause error) bool {
	l.mu.Lock()
	i := l.indexOfLocked(id)
	if i < 0 || l.slots[i].result != nil {
		l.mu.Unlock()
		return false
	}
	if cause == nil {
		cause = errors.New("unknown failure")
	}
	l.slots[i].err = cause
	delete(l.inFlight, id)
	l.version++
	l.mu.Unlock()

	l.notify()
	return true
}

// MarkInFlight flags the given items as submitted. Unknown and already
// filled items are skipped.
func (l *Ledger) MarkInFlight(ids []ItemID) {
	l.mu.Lock()
	changed := false
	for _, id := range ids {
		i := l.indexOfLocked(id)
		if i < 0 || l.slots[i].result != nil {
			continue
		}
		l.inFlight[id] = struct{}{}
		changed = true
	}
	if changed {
		l.version++
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// ClearInFlight removes the in-flight flag from the given items
func (l *Ledger) ClearInFlight(ids []ItemID) {
	l.mu.Lock()
	changed := false
	for _, id := range ids {
		if _, ok := l.inFlight[id]; ok {
			delete(l.inFlight, id)
			changed = true
		}
	}
	if changed {
		l.version++
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// DeleteAt removes the item at index. Later items shift down by one, in
// sources and results alike.
func (l *Ledger) DeleteAt(index int) error {
	l.mu.Lock()
	if index < 0 || index >= len(l.slots) {
		n := len(l.slots)
		l.mu.Unlock()
		return fmt.Errorf("delete %d of %d: %w", index, n, ErrIndexOutOfRange)
	}
	delete(l.inFlight, l.slots[index].id)
	l.slots = slices.Delete(l.slots, index, index+1)
	l.version++
	l.mu.Unlock()

	l.notify()
	return nil
}

// Clear resets the ledger to empty. Completions still running for cleared
// items are dropped when they arrive.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.slots = nil
	l.inFlight = make(map[ItemID]struct{})
	l.version++
	l.mu.Unlock()

	l.notify()
}

// Len returns the number of sources
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.slots)
}

// Source returns the source file of id, if it still exists
func (l *Ledger) Source(id ItemID) (photo.SourceFile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.indexOfLocked(id)
	if i < 0 {
		return photo.SourceFile{}, false
	}
	return l.slots[i].source, true
}

// IDsAt resolves indices to item IDs; out of range indices are skipped
func (l *Ledger) IDsAt(indices []int) []ItemID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]ItemID, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(l.slots) {
			ids = append(ids, l.slots[i].id)
		}
	}
	return ids
}

// Snapshot returns a consistent point-in-time copy of the ledger
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.slots)
	snap := Snapshot{
		IDs:      make([]ItemID, n),
		Sources:  make([]photo.SourceFile, n),
		Results:  make([]*photo.ResultFile, n),
		Failures: make([]error, n),
		InFlight: make(map[int]bool, len(l.inFlight)),
		Version:  l.version,
	}
	for i, s := range l.slots {
		snap.IDs[i] = s.id
		snap.Sources[i] = s.source
		snap.Results[i] = s.result
		snap.Failures[i] = s.err
		if _, ok := l.inFlight[s.id]; ok {
			snap.InFlight[i] = true
		}
	}
	return snap
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees at most one pending notification and
// should take a fresh Snapshot on each. Call cancel to unsubscribe.
func (l *Ledger) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.subMu.Lock()
	key := l.nextSub
	l.nextSub++
	l.subs[key] = ch
	l.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, key)
			l.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (l *Ledger) notify() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// indexOfLocked does a linear scan; batches are capped at a few hundred items
func (l *Ledger) indexOfLocked(id ItemID) int {
	for i := range l.slots {
		if l.slots[i].id == id {
			return i
		}
	}
	return -1
}
