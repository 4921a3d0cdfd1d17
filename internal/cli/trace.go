package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spindle/internal/trace"
)

// NewTraceCommand inspects a journal: lists stored traces or prints one.
func NewTraceCommand(root *RootOptions) *cobra.Command {
	var journal string

	cmd := &cobra.Command{
		Use:   "trace [name]",
		Short: "Inspect journaled dispatch traces",
		Long:  "With no argument, lists stored traces. With a name, prints that trace.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if journal == "" {
				return fmt.Errorf("--journal is required")
			}
			store, err := trace.Open(journal)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				return listTraces(cmd, root, store)
			}
			return showTrace(cmd, root, store, args[0])
		},
	}

	cmd.Flags().StringVarP(&journal, "journal", "j", "", "journal database path")
	return cmd
}

func listTraces(cmd *cobra.Command, root *RootOptions, store *trace.Store) error {
	infos, err := store.ListTraces(context.Background())
	if err != nil {
		return err
	}
	if root.Format == "json" {
		out, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d events\t%s\n", info.Name, info.Events, info.CreatedAt)
	}
	return nil
}

func showTrace(cmd *cobra.Command, root *RootOptions, store *trace.Store, name string) error {
	events, err := store.ReadTrace(context.Background(), name)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no trace named %q", name)
	}
	if root.Format == "json" {
		out, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), trace.Render(events))
	return nil
}
