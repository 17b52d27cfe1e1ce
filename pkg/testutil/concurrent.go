package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"creditgate/internal/sentinel"
)

// ConcurrentResult counts the outcomes of a RunConcurrent call.
type ConcurrentResult struct {
	Successes   int32
	Unavailable int32
	Failures    int32

	mu   sync.Mutex
	errs []error
}

// Total returns how many calls completed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Unavailable + r.Failures
}

// Errs returns every non-nil error in completion order.
func (r *ConcurrentResult) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// RunConcurrent starts n goroutines behind a shared gate so the calls to fn
// overlap as much as the scheduler allows. Errors wrapping
// sentinel.ErrUnavailable are counted apart from other failures, which lets
// audit-store tests separate injected outages from real bugs.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	res := &ConcurrentResult{}
	var (
		ok, unavailable, failed atomic.Int32
		wg                      sync.WaitGroup
		gate                    = make(chan struct{})
	)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			err := fn(i)
			switch {
			case err == nil:
				ok.Add(1)
				return
			case errors.Is(err, sentinel.ErrUnavailable):
				unavailable.Add(1)
			default:
				failed.Add(1)
			}
			res.mu.Lock()
			res.errs = append(res.errs, err)
			res.mu.Unlock()
		}()
	}
	close(gate)
	wg.Wait()

	res.Successes = ok.Load()
	res.Unavailable = unavailable.Load()
	res.Failures = failed.Load()
	return res
}
