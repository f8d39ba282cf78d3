package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/tokenmgmt/api"
	"github.com/s0up4200/tokenmgmt/config"
	"github.com/s0up4200/tokenmgmt/filter"
	"github.com/s0up4200/tokenmgmt/tokenclient"
)

var (
	cfgFile  string
	cfg      *config.Config
	logger   zerolog.Logger
	client   *tokenclient.TokenClient
	registry *prometheus.Registry
	filters  *filter.Manager

	// Global flags
	baseURL      string
	accessToken  string
	insecure     bool
	logLevel     string
	timeout      time.Duration
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tokenmgmt",
	Short: "Command line client for the Token Management API",
	Long: `tokenmgmt talks to a Token Management API server: sign in, issue and
call queue tokens, and manage locations, service points, token categories,
displays and API clients.

Connection settings come from tokenmgmt.yaml, TOKENMGMT_* environment
variables, or the flags below.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./tokenmgmt.yaml)")
	flags.StringVar(&baseURL, "base-url", "", "API base URL")
	flags.StringVar(&accessToken, "token", "", "bearer access token")
	flags.BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&timeout, "timeout", 0, "request timeout")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}

// flagOverrides maps explicitly set global flags onto config keys
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		overrides["api.base_url"] = baseURL
	}
	if flags.Changed("token") {
		overrides["api.access_token"] = accessToken
	}
	if flags.Changed("insecure") {
		overrides["api.verify_ssl"] = !insecure
	}
	if flags.Changed("log-level") {
		overrides["logging.level"] = logLevel
	}
	if flags.Changed("timeout") {
		overrides["api.timeout"] = timeout
	}
	return overrides
}

// initializeApp loads configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'table' or 'json')", outputFormat)
	}

	var err error
	cfg, err = config.Load(cfgFile, flagOverrides(cmd))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Presets); err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}

	registry = prometheus.NewRegistry()
	client, err = tokenclient.New(cfg.API.Gateway(),
		api.WithLogger(logger),
		api.WithUserAgent("tokenmgmt-cli/"+appVersion),
		api.WithMetrics(registry),
	)
	if err != nil {
		return err
	}

	if cfg.API.AccessToken != "" {
		client.SetAccessToken(cfg.API.AccessToken)
	}

	logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Bool("bearer", cfg.API.AccessToken != "").
		Bool("client_credentials", cfg.API.ClientID != "").
		Msg("Client initialized")

	return nil
}

// skipInit replaces initializeApp for commands that do not talk to the API
func skipInit(cmd *cobra.Command, args []string) error {
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
