package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/clonefile"
	"github.com/bamsammich/clonefile/internal/config"
	"github.com/bamsammich/clonefile/internal/ui"
	"github.com/bamsammich/clonefile/internal/verify"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// globalFlags are shared by the root command and its subcommands.
type globalFlags struct {
	verbose bool
	quiet   bool
	logFile string
}

// cloneFlags are the clone option flags. Unset flags fall back to the
// config file.
type cloneFlags struct {
	noFollow    bool
	noOwnerCopy bool
	cloneACL    bool
}

func bindCloneFlags(fs *pflag.FlagSet, f *cloneFlags) {
	fs.BoolVar(&f.noFollow, "no-follow", false, "clone a symbolic link itself instead of its target")
	fs.BoolVar(&f.noOwnerCopy, "no-owner-copy", false, "give the clone the caller's ownership")
	fs.BoolVar(&f.cloneACL, "clone-acl", false, "copy the source ACL to the clone")
}

// options merges explicitly set flags over config defaults.
func (f cloneFlags) options(fs *pflag.FlagSet, defaults config.DefaultsConfig) clonefile.Options {
	opts := defaults.Options()
	if fs.Changed("no-follow") {
		opts.NoFollow = f.noFollow
	}
	if fs.Changed("no-owner-copy") {
		opts.NoOwnerCopy = f.noOwnerCopy
	}
	if fs.Changed("clone-acl") {
		opts.CloneACL = f.cloneACL
	}
	return opts
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		g           globalFlags
		cf          cloneFlags
		async       bool
		verifyFlag  bool
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "clonefile [flags] <source> <destination>",
		Short: "Copy-on-write clone files and directories with clonefile(2)",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "clonefile %s\n", version)
				return nil
			}
			src, dst := args[0], args[1]

			cfg := loadConfig(cmd.ErrOrStderr())
			opts := cf.options(cmd.Flags(), cfg.Defaults)
			if !cmd.Flags().Changed("verify") && cfg.Defaults.Verify != nil {
				verifyFlag = *cfg.Defaults.Verify
			}

			logger, closeLog, err := setupLogging(cmd.ErrOrStderr(), g, cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Debug("cloning", "src", src, "dst", dst, "flags", opts.String(), "async", async)

			if async {
				_, err = clonefile.CloneAsync(src, dst, opts).Await(ctx)
			} else {
				_, err = clonefile.Clone(src, dst, opts)
			}
			if err != nil {
				logger.Debug("clone failed", "kind", clonefile.KindOf(err).String(), "code", clonefile.Code(err))
				fmt.Fprintf(cmd.ErrOrStderr(), "clonefile: %v\n", err)
				return &exitError{code: 1}
			}

			if verifyFlag {
				if err := verify.Clone(src, dst, opts.NoFollow); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "clonefile: verify: %v\n", err)
					return &exitError{code: 1}
				}
				logger.Debug("verified", "dst", dst)
			}

			logger.Info("cloned", "src", src, "dst", dst)
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	bindCloneFlags(rootCmd.Flags(), &cf)
	rootCmd.Flags().BoolVar(&async, "async", false, "run the clone on a background goroutine and wait for it")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify the clone after it completes (BLAKE3)")

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(newBatchCmd(&g))
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

// loadConfig reads the optional config file. A broken config is reported
// and ignored.
func loadConfig(stderr io.Writer) config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "warning: failed to load config: %v\n", err)
		return config.Config{}
	}
	return cfg
}

// setupLogging installs the default logger: text on stderr at the level
// selected by -v/-q, plus a debug-level JSON file when --log (or the
// config file) names one.
func setupLogging(stderr io.Writer, g globalFlags, lc config.LogConfig) (*slog.Logger, func(), error) {
	logLevel := slog.LevelWarn
	if g.verbose {
		logLevel = slog.LevelDebug
	} else if !g.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	logFile := g.logFile
	if logFile == "" && lc.File != nil {
		logFile = *lc.File
	}

	var logHandler slog.Handler = textHandler
	closeLog := func() {}
	if logFile != "" {
		lf, err := os.Create(logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeLog = func() { _ = lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}

	logger := slog.New(logHandler)
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
