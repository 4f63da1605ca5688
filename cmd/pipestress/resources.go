package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/apparentlymart/go-pipework/resource"
)

func newResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Acquire overlapping random sets of resources while their domains merge and split",
		Long: `Each worker repeatedly acquires a random set of resources together with a
pair of its own, then connects or disconnects that pair, so that the domains
everyone else is acquiring keep changing underneath them. The run fails if two
groups ever hold the same resource at once.`,
		Args: cobra.NoArgs,
		RunE: runResources,
	}
}

func runResources(cmd *cobra.Command, _ []string) error {
	s, ctx, stop, err := startScenario(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()
	if s.size < 2*s.workers {
		return fmt.Errorf("--%s must be at least twice --%s, so that each worker has a pair of its own", sizeFlag, workersFlag)
	}

	ids := make([]resource.Identifier, s.size)
	for i := range ids {
		ids[i] = s.arena.NewIdentifier()
	}
	owners := make([]atomic.Int32, s.size)
	var acquisitions, domainChanges atomic.Int64

	start := time.Now()
	p := s.newPool(ctx)
	for w := range s.workers {
		p.Go(func(ctx context.Context) error {
			rnd := s.randFor(w)
			a, b := (2*w)%s.size, (2*w+1)%s.size
			linked := false
			for range s.iterations {
				if ctx.Err() != nil {
					break
				}
				want := map[int]bool{a: true, b: true}
				for range 1 + rnd.Intn(3) {
					want[rnd.Intn(s.size)] = true
				}
				group := make([]resource.Identifier, 0, len(want))
				for i := range want {
					group = append(group, ids[i])
				}

				g := s.arena.Acquire(group...)
				acquisitions.Add(1)
				var err error
				for i := range want {
					if owners[i].Add(1) != 1 {
						err = fmt.Errorf("resource %s held by two groups at once", ids[i])
					}
				}
				if err == nil {
					if linked {
						err = g.Disconnect(ids[a], ids[b])
					} else {
						err = g.Connect(ids[a], ids[b])
					}
					linked = !linked
				}
				for i := range want {
					owners[i].Add(-1)
				}
				err = multierr.Append(err, g.Free())
				if err != nil {
					return err
				}
				domainChanges.Add(1)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	s.logger.Info("resources scenario finished",
		zap.Int64("acquisitions", acquisitions.Load()),
		zap.Int64("domain_changes", domainChanges.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "acquisitions=%d domain_changes=%d\n", acquisitions.Load(), domainChanges.Load())
	return nil
}
