package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wesm/ftpmanager/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const maxLogSize = 10 << 20

// exitCode ends the process with the given status without printing
// an error.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// app is the state shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	cfg config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

const longUsage = `ftpmanager keeps the list of remote sessions (or projects) that the
editor extension reads from its per-user settings directory.

The list is stored as a JSON array in <User dir>/remote_ftp_manager.json.
Older files that use {label, description} entries are converted on load.

Environment variables:
  FTPMANAGER_DATA_DIR      Data directory (config.json, debug.log)
  FTPMANAGER_APP_NAME      Editor name ("Visual Studio Code - Insiders")
  FTPMANAGER_VARIANT       sessions or projects
  FTPMANAGER_SETTINGS_DIR  Settings directory override
  FTPMANAGER_LOG_LEVEL     debug, info, warn or error
  VISUAL, EDITOR           Editor used by "ftpmanager open"

Data is stored in ~/.ftpmanager/ by default.`

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "ftpmanager",
		Short:         "Manage the editor's remote session list",
		Long:          longUsage,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			a.cfg = cfg
			a.log = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newHelloCmd(a),
		newOpenCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newExistsCmd(a),
		newStatusCmd(a),
		newReloadCmd(a),
		newPathCmd(a),
		newPickCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Skip config and logger setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(),
				"ftpmanager %s (commit %s, built %s)\n",
				version, commit, buildDate)
		},
	}
}

// newLogger builds a console logger that writes to stderr and to
// debug.log in the data directory.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	logPath := filepath.Join(cfg.DataDir, "debug.log")
	truncateLogFile(logPath, maxLogSize)

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	zc.Sampling = nil
	zc.OutputPaths = []string{"stderr", logPath}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// truncateLogFile empties path when it has grown past limit. Symlinks
// are left alone.
func truncateLogFile(path string, limit int64) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		return
	}
	if info.Size() > limit {
		_ = os.Truncate(path, 0)
	}
}

// out returns the command's stdout writer.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
