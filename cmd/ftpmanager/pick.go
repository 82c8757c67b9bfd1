package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesm/ftpmanager/internal/picker"
	"github.com/wesm/ftpmanager/internal/store"
	"github.com/wesm/ftpmanager/internal/watch"
)

func newPickCmd(a *app) *cobra.Command {
	var showIndex bool
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a record interactively and print its name",
		Long: "Show a filterable list on stderr and print the chosen name on\n" +
			"stdout, e.g. host=$(ftpmanager pick). Cancelling exits 1.\n" +
			"With --index the record's position is printed before the name,\n" +
			"which tells duplicate names apart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			items := st.Map()
			title := fmt.Sprintf("%s (%d)", a.cfg.Variant, len(items))
			idx, ok, err := picker.Run(
				cmd.Context(), items, title,
				cmd.InOrStdin(), cmd.ErrOrStderr(),
			)
			if errors.Is(err, picker.ErrNoItems) {
				return fmt.Errorf("%w in %s", err, st.Path())
			}
			if err != nil {
				return err
			}
			return writePick(out(cmd), items, idx, ok, showIndex)
		},
	}
	cmd.Flags().BoolVar(&showIndex, "index", false, "Print the record's position and a tab before its name")
	return cmd
}

// writePick prints the picked record. A cancelled pick prints nothing
// and yields exitCode(1).
func writePick(w io.Writer, items []store.PickItem, idx int, ok, showIndex bool) error {
	if !ok {
		return exitCode(1)
	}
	if idx < 0 || idx >= len(items) {
		return fmt.Errorf("picked index %d out of range", idx)
	}
	if showIndex {
		fmt.Fprintf(w, "%d\t%s\n", idx, items[idx].Label)
		return nil
	}
	fmt.Fprintln(w, items[idx].Label)
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the record list whenever the settings file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			w := out(cmd)
			if err := writeRecords(w, st, "table"); err != nil {
				return err
			}

			onChange := func() {
				if err := st.Reload(); err != nil {
					a.log.Error("reloading settings", zap.Error(err))
					return
				}
				fmt.Fprintf(w, "\n%s changed:\n", st.Path())
				if err := writeRecords(w, st, "table"); err != nil {
					a.log.Error("writing records", zap.Error(err))
				}
			}
			watcher, err := watch.New(st.Path(), debounce, onChange, a.log)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			watcher.Start()
			defer watcher.Stop()

			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before reloading")
	return cmd
}
