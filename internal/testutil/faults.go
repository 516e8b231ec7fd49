package testutil

import (
	"sync"

	ierr "github.com/flexprice/flexgym/internal/errors"
)

// Faults lets tests fail store operations and count the writes a service
// issued. Stores call write before every mutating operation.
type Faults struct {
	mu      sync.Mutex
	pending map[string][]error
	always  map[string]error
	after   map[string]*delayedFault
	writes  map[string]int
}

type delayedFault struct {
	remaining int
	err       error
}

func newFaults() *Faults {
	return &Faults{
		pending: make(map[string][]error),
		always:  make(map[string]error),
		after:   make(map[string]*delayedFault),
		writes:  make(map[string]int),
	}
}

// FailNext makes the next call of op return err. Calls queue up.
func (f *Faults) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[op] = append(f.pending[op], err)
}

// FailAlways makes every call of op return err until Reset
func (f *Faults) FailAlways(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.always[op] = err
}

// FailAfter lets the next n calls of op through and fails every call after
// them with err
func (f *Faults) FailAfter(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.after[op] = &delayedFault{remaining: n, err: err}
}

// Writes returns how many times op succeeded past fault injection, or the
// total over all ops when op is empty
func (f *Faults) Writes(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op != "" {
		return f.writes[op]
	}
	total := 0
	for _, n := range f.writes {
		total += n
	}
	return total
}

// Reset clears injected faults and counters
func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = make(map[string][]error)
	f.always = make(map[string]error)
	f.after = make(map[string]*delayedFault)
	f.writes = make(map[string]int)
}

func (f *Faults) write(op string) error {
	if err := f.check(op); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes[op]++
	f.mu.Unlock()
	return nil
}

func (f *Faults) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if queued := f.pending[op]; len(queued) > 0 {
		f.pending[op] = queued[1:]
		return queued[0]
	}
	if err, ok := f.always[op]; ok {
		return err
	}
	if d, ok := f.after[op]; ok {
		if d.remaining == 0 {
			return d.err
		}
		d.remaining--
	}
	return nil
}

// ErrInjected is a store failure for tests
func ErrInjected(op string) error {
	return ierr.NewErrorf("injected failure on %s", op).
		WithHint("The database is unavailable").
		Mark(ierr.ErrDatabase)
}
