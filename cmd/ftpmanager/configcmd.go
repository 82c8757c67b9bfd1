package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/ftpmanager/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ftpmanager settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.cfg.StorePath().Path()
			if err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "data_dir:      %s\n", a.cfg.DataDir)
			fmt.Fprintf(w, "app_name:      %s\n", a.cfg.AppName)
			fmt.Fprintf(w, "variant:       %s\n", a.cfg.Variant)
			fmt.Fprintf(w, "settings_dir:  %s\n", a.cfg.SettingsDir)
			fmt.Fprintf(w, "file_name:     %s\n", a.cfg.FileName)
			fmt.Fprintf(w, "editor:        %s\n", a.cfg.Editor)
			fmt.Fprintf(w, "log_level:     %s\n", a.cfg.LogLevel)
			fmt.Fprintf(w, "settings_file: %s\n", path)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Save a setting to config.json",
		Long: "Save a setting to config.json in the data directory.\n\nKeys: " +
			strings.Join(config.SettableKeys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.SaveSetting(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "%s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
