package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spindle/internal/config"
	"github.com/roach88/spindle/internal/executor"
	"github.com/roach88/spindle/internal/mem"
	"github.com/roach88/spindle/internal/middleware"
	"github.com/roach88/spindle/internal/trace"
)

// NewRunCommand drives a demo topology for a configured number of spin
// periods: a timer publishes heartbeats, a subscription consumes them,
// and the dispatch trace is optionally journaled.
func NewRunCommand(root *RootOptions) *cobra.Command {
	var configPath string
	var traceName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo executor loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runDemo(cmd, cfg, traceName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	cmd.Flags().StringVar(&traceName, "trace-name", "demo", "journal entry name for this run")
	return cmd
}

func runDemo(cmd *cobra.Command, cfg config.Config, traceName string) error {
	transport := mem.NewTransport()
	defer transport.Shutdown()

	const topic = "heartbeat"

	beats := 0
	timer, err := transport.NewTimer(cfg.Period, func() {
		beats++
		if err := transport.Publish(topic, []byte(fmt.Sprintf("beat %d", beats))); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "publish failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}

	sub, err := transport.NewSubscription(topic)
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	recorder := trace.NewRecorder()
	opts = append(opts, executor.WithObserver(recorder))

	exec, err := executor.New(transport, cfg.Capacity, opts...)
	if err != nil {
		return err
	}
	defer exec.Fini()

	if err := exec.AddTimer(timer); err != nil {
		return err
	}
	var buf []byte
	err = exec.AddSubscription(sub, &buf, func(msg any) {
		if msg != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "received: %s\n", string(*msg.(*[]byte)))
		}
	}, executor.OnNewData)
	if err != nil {
		return err
	}

	for i := 0; cfg.Cycles == 0 || i < cfg.Cycles; i++ {
		if err := exec.SpinOnePeriod(cfg.Period); err != nil && !errors.Is(err, middleware.ErrTimeout) {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "spun %d cycles, %d heartbeats\n", recorder.Cycles(), beats)

	if cfg.Journal != "" {
		store, err := trace.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.WriteTrace(context.Background(), traceName, recorder.Events()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "journaled trace %q to %s\n", traceName, cfg.Journal)
	}
	return nil
}
