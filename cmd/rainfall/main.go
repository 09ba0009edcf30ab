// Command rainfall analyzes a local rainfall catalog from the terminal: list
// what is available, flag bad years, export tables and validate series files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	"github.com/couchcryptid/rainfall-badyears/internal/analysis"
	"github.com/couchcryptid/rainfall-badyears/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// app holds the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
	metrics *observability.Metrics
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "rainfall",
		Short: "Identify bad rainfall years in seasonal series",
		Long: `rainfall flags the bad years of seasonal rainfall series stored as
<data-dir>/<country>/<season>/<region>_mean_data.csv, either by a fixed
threshold in mm or as the driest percentage of years.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./rainfall.yaml)")
	pf.String("data-dir", "data", "root of the rainfall catalog")
	pf.Int("base-year", 1991, "calendar year of series index 1")
	pf.Int("load-concurrency", 4, "series loaded in parallel")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	for key, flag := range map[string]string{
		"data_dir":         "data-dir",
		"base_year":        "base-year",
		"load_concurrency": "load-concurrency",
		"logging.level":    "log-level",
		"logging.format":   "log-format",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(a.catalogCmd())
	root.AddCommand(a.analyzeCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.validateCmd())
	return root
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("rainfall")
		a.v.SetConfigType("yaml")
	}

	// RAINFALL_DATA_DIR, RAINFALL_LOGGING_LEVEL, ...
	a.v.SetEnvPrefix("RAINFALL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("logging.level"), a.v.GetString("logging.format"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger
	a.metrics = observability.NewUnregisteredMetrics()
	return nil
}

// newLogger writes logs to w, keeping stdout free for command output.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

func (a *app) catalog() *catalog.Catalog {
	return catalog.New(a.v.GetString("data_dir"))
}

func (a *app) service(cat *catalog.Catalog) *analysis.Service {
	return analysis.New(cat, nil, analysis.Options{
		DefaultBaseYear: a.v.GetInt("base_year"),
		LoadConcurrency: a.v.GetInt("load_concurrency"),
	}, a.metrics, a.logger)
}
