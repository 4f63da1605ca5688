package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/apparentlymart/go-pipework/pipework"
)

func newPipesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipes",
		Short: "Pass messages down a chain of direct pipes while its links are rewired",
		Long: `Senders push messages into the head of a chain of direct pipes and receivers
take them from its tail, each side with a per-message timeout. Meanwhile one
worker keeps disconnecting and reconnecting random links of the chain. The run
fails if the number of messages reported sent differs from the number
received.`,
		Args: cobra.NoArgs,
		RunE: runPipes,
	}

	flags := cmd.Flags()
	flags.Duration(timeoutFlag, 10*time.Millisecond, "how long each send or receive waits for a counterpart")
	cmd.PreRun = bindFlagsFunc(flags, timeoutFlag)

	return cmd
}

func runPipes(cmd *cobra.Command, _ []string) error {
	s, ctx, stop, err := startScenario(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()
	timeout := viper.GetDuration(timeoutFlag)
	if timeout <= 0 {
		return fmt.Errorf("--%s must be positive", timeoutFlag)
	}

	chain := make([]*pipework.Direct[int], s.size)
	for i := range chain {
		chain[i] = pipework.NewDirect[int](s.arena)
		if i > 0 {
			if err := pipework.Connect(chain[i].Inlet(), chain[i-1].Outlet()); err != nil {
				return err
			}
		}
	}
	head, tail := chain[0].Inlet(), chain[len(chain)-1].Outlet()

	var sent, received, timeouts, rewires atomic.Int64
	var sendersDone atomic.Bool
	start := time.Now()

	receivers := s.newPool(ctx)
	for range s.workers {
		receivers.Go(func(ctx context.Context) error {
			for ctx.Err() == nil && !sendersDone.Load() {
				_, err := tail.ReceiveTimeout(timeout)
				switch {
				case err == nil:
					received.Add(1)
				case errors.Is(err, pipework.ErrTimeout):
					timeouts.Add(1)
				default:
					return err
				}
			}
			return nil
		})
	}

	rewirer := s.newPool(ctx)
	rewirer.Go(func(ctx context.Context) error {
		rnd := s.randFor(-1)
		for ctx.Err() == nil && !sendersDone.Load() {
			i := 1 + rnd.Intn(len(chain)-1)
			in, out := chain[i].Inlet(), chain[i-1].Outlet()
			if err := pipework.Disconnect(in, out); err != nil {
				return err
			}
			time.Sleep(time.Duration(rnd.Intn(int(timeout))))
			if err := pipework.Connect(in, out); err != nil {
				return err
			}
			rewires.Add(1)
			s.logger.Debug("rewired chain link", zap.Int("link", i))
		}
		return nil
	})

	senders := s.newPool(ctx)
	for w := range s.workers {
		senders.Go(func(ctx context.Context) error {
			for i := range s.iterations {
				if ctx.Err() != nil {
					break
				}
				err := head.SendTimeout(w*s.iterations+i, timeout)
				switch {
				case err == nil:
					sent.Add(1)
				case errors.Is(err, pipework.ErrTimeout):
					timeouts.Add(1)
				default:
					return err
				}
			}
			return nil
		})
	}
	sendErr := senders.Wait()
	sendersDone.Store(true)
	if err := multierr.Combine(sendErr, rewirer.Wait(), receivers.Wait()); err != nil {
		return err
	}

	s.logger.Info("pipes scenario finished",
		zap.Int64("sent", sent.Load()),
		zap.Int64("received", received.Load()),
		zap.Int64("timeouts", timeouts.Load()),
		zap.Int64("rewires", rewires.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "sent=%d received=%d timeouts=%d rewires=%d\n",
		sent.Load(), received.Load(), timeouts.Load(), rewires.Load())
	if sent.Load() != received.Load() {
		return fmt.Errorf("%d messages reported sent but %d received", sent.Load(), received.Load())
	}
	return nil
}
