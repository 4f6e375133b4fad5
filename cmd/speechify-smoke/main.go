// Command speechify-smoke exercises the Speechify integration against live
// credentials and reports pass or fail for each check.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/config"
	"github.com/book-expert/speechify-service/internal/objectstore"
	"github.com/book-expert/speechify-service/internal/speechify"
	"github.com/book-expert/speechify-service/internal/synthesis"
	"github.com/book-expert/speechify-service/internal/voices"
	"github.com/spf13/cobra"
)

const (
	logFileName    = "speechify-smoke.log"
	commandTimeout = 2 * time.Minute
)

var errChecksFailed = errors.New("one or more checks failed")

// options holds the persistent flag values.
type options struct {
	configPath string
	noStorage  bool
}

func main() {
	err := rootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "speechify-smoke",
		Short:         "Smoke-test the Speechify TTS integration",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file (defaults to environment only)")
	cmd.PersistentFlags().BoolVar(&opts.noStorage, "no-storage", false, "skip storage setup; speak checks will fail")

	cmd.AddCommand(voicesCmd(opts))
	cmd.AddCommand(apiCmd(opts))
	cmd.AddCommand(speakCmd(opts))
	cmd.AddCommand(filterCmd(opts))
	cmd.AddCommand(allCmd(opts))

	return cmd
}

func voicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "Fetch the voice catalog and print a sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, false, []check{{name: "voice catalog", run: checkVoices}})
		},
	}
}

func apiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Call the speech API directly with the first listed voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, false, []check{{name: "speech API", run: checkAPI}})
		},
	}
}

func speakCmd(opts *options) *cobra.Command {
	var voiceName, text string

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize text, upload it and print the public URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, true, []check{{name: "text to speech", run: speakCheck(text, voiceName)}})
		},
	}
	cmd.Flags().StringVar(&voiceName, "voice", "", "voice name (defaults to the first catalog voice)")
	cmd.Flags().StringVar(&text, "text", sampleText, "text to synthesize")

	return cmd
}

func filterCmd(opts *options) *cobra.Command {
	var criteria voices.Criteria

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List voice ids matching gender, locale and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, false, []check{{name: "voice filter", run: filterCheck(criteria)}})
		},
	}
	cmd.Flags().StringVar(&criteria.Gender, "gender", "", "gender, e.g. male or female")
	cmd.Flags().StringVar(&criteria.Locale, "locale", "", "locale, e.g. en-US")
	cmd.Flags().StringSliceVar(&criteria.Tags, "tag", nil, "required tag, repeatable")

	return cmd
}

func allCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, !opts.noStorage, []check{
				{name: "voice catalog", run: checkVoices},
				{name: "speech API", run: checkAPI},
				{name: "text to speech", run: speakCheck(sampleText, "")},
				{name: "voice filter", run: filterCheck(voices.Criteria{})},
			})
		},
	}
}

// execute loads configuration, builds the environment and runs checks.
func execute(cmd *cobra.Command, opts *options, withStorage bool, checks []check) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Close() }()

	e, closeEnv, err := newEnv(ctx, cmd, cfg, log, withStorage && !opts.noStorage)
	if err != nil {
		return err
	}
	defer closeEnv()

	if runChecks(ctx, e, checks) > 0 {
		return errChecksFailed
	}

	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}

	return config.LoadFromFile(path)
}

func newEnv(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	log *logger.Logger,
	withStorage bool,
) (*env, func(), error) {
	noop := func() {}

	if cfg.Speechify.APIKey == "" {
		return nil, noop, fmt.Errorf("%w: export %s", config.ErrAPIKeyMissing, config.EnvSpeechifyAPIKey)
	}

	client, err := speechify.NewClient(cfg.Speechify.APIKey, cfg.Speechify.BaseURL, cfg.Timeout())
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create Speechify client: %w", err)
	}

	e := &env{out: cmd.OutOrStdout(), log: log, provider: client}

	if !withStorage {
		return e, noop, nil
	}

	if cfg.Storage.Bucket == "" {
		_, _ = fmt.Fprintf(e.out, "%s not set; speech will be generated but the upload will fail\n", config.EnvBucketName)
	}

	storage, closeStorage, err := objectstore.Open(ctx, cfg.Storage, nil)
	if err != nil {
		e.storageErr = fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
		_, _ = fmt.Fprintf(e.out, "%v; text to speech checks will fail\n", e.storageErr)

		return e, noop, nil
	}

	e.pipeline = synthesis.New(client, storage, cfg.Storage.Bucket, log)

	return e, func() { _ = closeStorage() }, nil
}
