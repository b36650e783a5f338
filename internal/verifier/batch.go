package verifier

import (
	"context"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Request is one entry of a batch.
type Request struct {
	Message   []byte
	Signature []byte
	Expected  common.Address
}

// Result mirrors the Request at the same index. Err is the recovery error,
// or the context error for entries skipped after cancellation.
type Result struct {
	Recovered common.Address
	Valid     bool
	Err       error
}

// VerifyBatch verifies reqs on a bounded pool of workers and returns results
// in input order.
func (v *Verifier) VerifyBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			addr, err := v.RecoverSigner(reqs[i].Message, reqs[i].Signature)
			results[i] = Result{
				Recovered: addr,
				Valid:     err == nil && addr == reqs[i].Expected,
				Err:       err,
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return results
}
