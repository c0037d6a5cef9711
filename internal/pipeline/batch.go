// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// BatchResult pairs a query with its outcome. Err is an *InputError when
// the question was rejected.
type BatchResult struct {
	Query  types.Query
	Result *types.QueryResult
	Err    error
}

// ResolveBatch resolves queries concurrently, at most concurrency at a
// time. Results keep input order. The returned error is ctx's error when
// the batch was cancelled before every query started.
func (p *Pipeline) ResolveBatch(ctx context.Context, queries []types.Query, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(queries))
	for i, q := range queries {
		results[i].Query = q
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, q := range queries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.Resolve(ctx, q)
			results[i].Result = res
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}
