package engine

import (
	"sync"

	"github.com/blobd/blobd/reference"
)

// slots implements the process-wide ingest-slot discipline of spec §5: at
// most one Add may be mid-finalization for a given reference at a time. A
// second concurrent Add for the same reference blocks until the first
// finishes, then observes the committed blob and takes the dedup path.
//
// Modeled on the teacher's blobWriter mutex/cond discipline
// (registry/storage/blobwriter.go), generalized from per-upload-id to
// per-reference so that concurrent uploads of *different* content never
// contend, only uploads racing to commit the *same* digest do.
type slots struct {
	mu       sync.Mutex
	inFlight map[reference.Reference]*slot
}

type slot struct {
	wg sync.WaitGroup
}

func newSlots() *slots {
	return &slots{inFlight: make(map[reference.Reference]*slot)}
}

// acquire blocks until no other goroutine holds ref's slot, then takes it
// and returns a release function. If another Add for ref is already in
// flight, acquire waits for it to finish before returning — the caller
// then re-checks existence and takes the dedup path if the winner already
// committed.
func (s *slots) acquire(ref reference.Reference) func() {
	for {
		s.mu.Lock()
		existing, busy := s.inFlight[ref]
		if !busy {
			mine := &slot{}
			mine.wg.Add(1)
			s.inFlight[ref] = mine
			s.mu.Unlock()

			return func() {
				s.mu.Lock()
				delete(s.inFlight, ref)
				s.mu.Unlock()
				mine.wg.Done()
			}
		}
		s.mu.Unlock()

		existing.wg.Wait()
		// loop back around: the previous holder released the slot, but
		// another goroutine may have grabbed it in the meantime.
	}
}
