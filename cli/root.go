package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type ctxKey string

const appCtxKey ctxKey = "appData"

// appData is built once per invocation and shared with subcommands through
// the command context.
type appData struct {
	config *AppConfig
	logger *slog.Logger
	closer io.Closer
}

func (a *appData) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func NewRootCommand() *cobra.Command {
	var (
		appConfigPath string
		debug         bool
	)

	rootCmd := &cobra.Command{
		Use:   "s3mv",
		Short: "s3mv moves files and objects to, from and between S3 buckets",
		Long: `s3mv moves local files to S3, S3 objects to the local filesystem, or S3 objects
between buckets. Every file is copied first and its source removed once the
copy succeeded. Recursive moves run many transfers in parallel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAppConfig(appConfigPath, cmd.Flags())
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: fmt.Errorf("failed to load app config: %w", err)}
			}

			logger, closer, err := newLogger(cfg, debug, cmd.ErrOrStderr())
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: fmt.Errorf("failed to configure logging: %w", err)}
			}

			logger.DebugContext(cmd.Context(), "configuration loaded",
				"config", appConfigPath,
				"region", cfg.Region,
				"endpoint", cfg.EndpointURL,
				"profile", cfg.Profile,
			)

			ctx := context.WithValue(cmd.Context(), appCtxKey, &appData{
				config: cfg,
				logger: logger,
				closer: closer,
			})
			cmd.SetContext(ctx)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&appConfigPath, "config", "", "Path to config file (TOML), default ~/.s3mv/config.toml")
	flags.BoolVar(&debug, "debug", false, "Turn on debug logging")
	flags.String("region", "", "The region to use, overrides config and env settings")
	flags.String("endpoint-url", "", "Override the S3 endpoint URL")
	flags.String("profile", "", "Use a specific profile from your AWS credential file")
	flags.Bool("no-verify-ssl", false, "Do not verify SSL certificates")
	flags.String("log-file", "", "Write JSON logs to this file, rotated by size")

	rootCmd.AddCommand(MoveCommand())

	return rootCmd
}

// Execute runs s3mv with args and returns the process exit code. Errors that
// were not already printed are written to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || !exitErr.Silent {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
	return ExitCode(err)
}

func getAppData(cmd *cobra.Command) *appData {
	if v := cmd.Context().Value(appCtxKey); v != nil {
		if data, ok := v.(*appData); ok {
			return data
		}
	}
	return nil
}
