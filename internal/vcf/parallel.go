package vcf

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkItem is one raw line queued for decoding, tagged with a sequence
// number so results can be re-ordered after the fan-out.
type WorkItem struct {
	Seq  int
	Line string
}

// WorkResult is the decode outcome for one line. Record is nil for
// skippable lines.
type WorkResult struct {
	Seq    int
	Record *Record
	Err    error
}

// ParallelDecode decodes work items with a pool of workers, each holding
// its own DecodeContext against the shared codec. Results arrive in
// completion order; use OrderedCollect to consume them in sequence order.
// If workers is 0, runtime.NumCPU() is used.
func (c *Codec) ParallelDecode(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			ctx := NewDecodeContext()
			for item := range items {
				rec, err := c.DecodeLine(ctx, item.Line, true)
				results <- WorkResult{Seq: item.Seq, Record: rec, Err: err}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait() // workers never return an error; failures ride in WorkResult
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order,
// buffering out-of-order results until the next expected sequence number
// arrives. Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
