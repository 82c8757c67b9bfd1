package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wesm/ftpmanager/internal/config"
	"github.com/wesm/ftpmanager/internal/editor"
	"github.com/wesm/ftpmanager/internal/store"
)

// recordStore is the variant-independent part of a store.
type recordStore interface {
	Path() string
	Len() int
	Exists(name string) bool
	Load() error
	Reload() error
	Save() error
	Map() []store.PickItem
	Open(ctx context.Context, o store.Opener) error
}

func (a *app) openStore() (recordStore, error) {
	pp := a.cfg.StorePath()
	if a.cfg.Variant == config.VariantProjects {
		p, err := store.OpenProjects(pp, a.log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	s, err := store.OpenSessions(pp, a.log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// loadStore opens the store and reads the settings file.
func (a *app) loadStore() (recordStore, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, err
	}
	return st, nil
}

func records(st recordStore) any {
	switch s := st.(type) {
	case *store.Sessions:
		return s.Records()
	case *store.Projects:
		return s.Records()
	}
	return nil
}

func newHelloCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Say hello",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(out(cmd), "Hello World!")
			a.log.Debug("Hello World")
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "open",
		Aliases: []string{"edit"},
		Short:   "Open the settings file in an editor",
		Long: "Open the settings file with the configured editor, $VISUAL or\n" +
			"$EDITOR. When no editor is available the path is printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			launcher := &editor.Launcher{
				Command: a.cfg.Editor,
				Stdin:   cmd.InOrStdin(),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
				Log:     a.log,
			}
			err = st.Open(cmd.Context(), launcher)
			if errors.Is(err, editor.ErrNoEditor) {
				fmt.Fprintln(out(cmd), st.Path())
				return nil
			}
			return err
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			return writeRecords(out(cmd), st, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func writeRecords(w io.Writer, st recordStore, format string) error {
	switch format {
	case "table":
		items := st.Map()
		if len(items) == 0 {
			fmt.Fprintln(w, "No records.")
			return nil
		}
		return writeTable(w, items)
	case "json":
		data, err := json.MarshalIndent(records(st), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(st)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
}

var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// writeTable prints items as borderless NAME/DETAIL columns.
func writeTable(w io.Writer, items []store.PickItem) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Label, it.Description})
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return cellStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("NAME", "DETAIL").
		Rows(rows...)

	for _, line := range strings.Split(t.Render(), "\n") {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

type addOptions struct {
	session store.Session
	root    string
	group   string
	paths   []string
}

func newAddCmd(a *app) *cobra.Command {
	var opts addOptions
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a record and save",
		Long: "Add a record and save the settings file. Names are not required\n" +
			"to be unique; lookups use the first match.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			name := args[0]
			if st.Exists(name) {
				a.log.Warn("a record with this name already exists; lookups use the first",
					zap.String("name", name))
			}
			switch s := st.(type) {
			case *store.Sessions:
				r := opts.session
				r.Name = name
				s.Add(r)
			case *store.Projects:
				p := store.NewProject(name, opts.root)
				p.Group = opts.group
				p.Paths = append(p.Paths, opts.paths...)
				s.Add(p)
			}
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Added %q (%d records)\n", name, st.Len())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.session.Type, "type", "ftp", "Session: connection type")
	f.StringVar(&opts.session.Host, "host", "", "Session: host name")
	f.IntVar(&opts.session.Port, "port", 21, "Session: port")
	f.StringVar(&opts.session.Username, "user", "", "Session: user name")
	f.StringVar(&opts.session.Password, "password", "", "Session: password (stored in plain text)")
	f.StringVar(&opts.session.RemotePath, "remote-path", "/", "Session: remote directory")
	f.IntVar(&opts.session.ConnectTimeout, "timeout", 30, "Session: connect timeout in seconds")
	f.StringVar(&opts.session.LocalPath, "local-path", "", "Session: local directory")
	f.StringVar(&opts.root, "root", "", "Project: root path")
	f.StringVar(&opts.group, "group", "", "Project: group label")
	f.StringArrayVar(&opts.paths, "path", nil, "Project: additional path (repeatable)")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove the first record with NAME and save",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			name := args[0]
			if !st.Exists(name) {
				fmt.Fprintf(out(cmd), "No record named %q.\n", name)
				return nil
			}
			if !yes {
				msg := fmt.Sprintf("Remove %q?", name)
				if !confirm(cmd.InOrStdin(), out(cmd), msg) {
					fmt.Fprintln(out(cmd), "Aborted.")
					return nil
				}
			}
			switch s := st.(type) {
			case *store.Sessions:
				s.Remove(name)
			case *store.Projects:
				s.Remove(name)
			}
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Removed %q (%d records left)\n", name, st.Len())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N] ", msg)
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	ans := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return ans == "y" || ans == "yes"
}

func newExistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists NAME",
		Short: "Exit 0 if a record named NAME exists, 1 otherwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			if !st.Exists(args[0]) {
				fmt.Fprintln(out(cmd), "false")
				return exitCode(1)
			}
			fmt.Fprintln(out(cmd), "true")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the settings file location and whether it loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "file:     %s\n", st.Path())
			fmt.Fprintf(w, "variant:  %s\n", a.cfg.Variant)
			if err := st.Load(); err != nil {
				fmt.Fprintf(w, "load:     %v\n", err)
				return nil
			}
			fmt.Fprintln(w, "load:     ok")
			fmt.Fprintf(w, "records:  %d\n", st.Len())
			return nil
		},
	}
}

func newReloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the settings file, failing on any error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if err := st.Reload(); err != nil {
				return fmt.Errorf("reloading %s: %w", st.Path(), err)
			}
			fmt.Fprintf(out(cmd), "Reloaded %d records\n", st.Len())
			return nil
		},
	}
}
