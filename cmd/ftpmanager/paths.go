package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/ftpmanager/internal/store"
)

var errNotProjects = errors.New(
	"path commands need the projects variant (--variant projects)",
)

func newPathCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Edit the paths of a project",
	}
	cmd.AddCommand(
		newPathEditCmd(a, "add", "Append PATH to the project's paths",
			(*store.Projects).AddPath),
		newPathEditCmd(a, "remove", "Remove PATH from the project's paths",
			(*store.Projects).RemovePath),
		newPathEditCmd(a, "root", "Set the project's root path to PATH",
			(*store.Projects).UpdateRootPath),
	)
	return cmd
}

// newPathEditCmd builds a "path <verb> NAME PATH" command that loads
// the project store, applies edit and saves. Unknown names are
// reported but are not an error.
func newPathEditCmd(
	a *app, verb, short string,
	edit func(p *store.Projects, name, path string),
) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " NAME PATH",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			p, ok := st.(*store.Projects)
			if !ok {
				return errNotProjects
			}
			name, path := args[0], args[1]
			if !p.Exists(name) {
				fmt.Fprintf(out(cmd), "No project named %q.\n", name)
				return nil
			}
			edit(p, name, path)
			if err := p.Save(); err != nil {
				return err
			}
			r, _ := p.Get(name)
			fmt.Fprintf(out(cmd), "%s: root %s, %d other paths\n",
				r.Name, r.RootPath, len(r.Paths))
			return nil
		},
	}
}
