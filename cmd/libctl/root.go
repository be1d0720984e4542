// Root command, global flags, and configuration loading.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
	"github.com/warp/circulation-engine/store/sqlite"
)

// Config keys. Each is overridable by flag, then LIBCTL_* env var, then
// .libctl.yaml in the working directory or home.
const (
	cfgKeyDB       = "db"
	cfgKeyFineRate = "fine_rate"
)

// Global flag values.
var (
	flagDB       string
	flagFineRate string
	flagJSON     bool
)

var cfg *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "libctl",
	Short: "libctl manages library circulation from the command line",
	Long: "Libctl borrows, returns, and donates copies, settles fines,\n" +
		"and searches the catalog and events against the circulation database.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: library.db)")
	rootCmd.PersistentFlags().StringVar(&flagFineRate, "fine-rate", "", "daily late fee (default: 0.50)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(borrowCmd)
	rootCmd.AddCommand(returnCmd)
	rootCmd.AddCommand(donateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(finesCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(volunteerCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig resolves settings with flag > env > config file > default
// precedence. A missing .libctl.yaml is not an error.
func loadConfig() error {
	v := viper.New()
	v.SetDefault(cfgKeyDB, "library.db")
	v.SetDefault(cfgKeyFineRate, "0.50")

	v.SetConfigName(".libctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("LIBCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if flagDB != "" {
		v.Set(cfgKeyDB, flagDB)
	}
	if flagFineRate != "" {
		v.Set(cfgKeyFineRate, flagFineRate)
	}

	cfg = v
	return nil
}

// openStore opens the configured SQLite database and wires the engine and
// community service over it. Callers must Close the store.
func openStore() (*sqlite.Store, *circulation.Engine, *community.Service, error) {
	store, err := sqlite.New(cfg.GetString(cfgKeyDB))
	if err != nil {
		return nil, nil, nil, err
	}

	rate, err := decimal.NewFromString(cfg.GetString(cfgKeyFineRate))
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("invalid fine_rate: %w", err)
	}

	engine := circulation.NewEngine(store, circulation.FinePolicy{DailyRate: rate})
	return store, engine, community.NewService(store), nil
}

// emit prints v as JSON when --json is set, otherwise via the fallback.
func emit(v any, plain func()) {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(v)
		return
	}
	plain()
}

// parseDateArg parses a YYYY-MM-DD argument, defaulting to today.
func parseDateArg(s string) (circulation.Date, error) {
	if s == "" {
		return circulation.Today(), nil
	}
	return circulation.ParseDate(s)
}
