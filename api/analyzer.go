// Package api is the analytics surface over a trajectory store: every
// query reads streams, accumulates, merges, and mutates nothing.
package api

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tracklife/trajd/geoidx"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/store"
	"github.com/tracklife/trajd/types/user"
)

type Analyzer struct {
	Store  store.Store
	Config *params.AnalyzerConfig

	// Indexer, when attached, serves proximity queries from the built
	// spatiotemporal index instead of a full stream scan.
	Indexer *geoidx.CellIndexer

	logger *slog.Logger
}

func NewAnalyzer(s store.Store, config *params.AnalyzerConfig) (*Analyzer, error) {
	if config == nil {
		config = params.DefaultAnalyzerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		Store:  s,
		Config: config,
		logger: slog.With("api", "analyzer"),
	}, nil
}

// mapUsers fans fn out over every user with bounded parallelism and
// collects the per-user values. Workers share nothing; the caller's
// reduction over the returned slice must be associative and
// commutative, because completion order is whatever it is.
// Cancellation is honored between users.
func mapUsers[T any](ctx context.Context, a *Analyzer, fn func(context.Context, user.User) (T, error)) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Workers)

	mu := sync.Mutex{}
	out := []T{}
	for u := range a.Store.StreamUsers(gctx) {
		u := u
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			v, err := fn(gctx, u)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, v)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Canceled before any user surfaced: still an error, not an empty answer.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
