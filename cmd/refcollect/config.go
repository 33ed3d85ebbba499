package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
	"github.com/matsen/refcollect/internal/report"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set global configuration values.

Usage:
  refcollect config                        # Show all config
  refcollect config synctex-exe           # Get specific value
  refcollect config synctex-exe /opt/bin/synctex   # Set value
  refcollect config default-sort year     # Set default sort mode

Keys:
  synctex-exe   Name or path of the synctex binary
  default-sort  Record order when --sort is omitted (occurrence, year, bib)
  rate-limit    Synctex subprocess spawns per second
  parallelism   Concurrent coordinate lookups`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	SynctexExe  string  `json:"synctex_exe,omitempty"`
	DefaultSort string  `json:"default_sort,omitempty"`
	RateLimit   float64 `json:"rate_limit,omitempty"`
	Parallelism int     `json:"parallelism,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			outputHuman("synctex-exe:  %s\n", cfg.SynctexExe)
			outputHuman("default-sort: %s\n", cfg.DefaultSort)
			outputHuman("rate-limit:   %g\n", cfg.SynctexRateLimit)
			outputHuman("parallelism:  %d\n", cfg.Parallelism)
		} else {
			outputJSON(ConfigResponse{
				SynctexExe:  cfg.SynctexExe,
				DefaultSort: cfg.DefaultSort,
				RateLimit:   cfg.SynctexRateLimit,
				Parallelism: cfg.Parallelism,
			})
		}
		return nil
	}

	key := args[0]

	// One arg: get a single value
	if len(args) == 1 {
		value, err := configValue(cfg, key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			outputHuman("%s\n", value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set a value
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := config.SaveGlobalConfig(cfg); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

func configValue(cfg *config.GlobalConfig, key string) (string, error) {
	switch key {
	case "synctex-exe":
		return cfg.SynctexExe, nil
	case "default-sort":
		return cfg.DefaultSort, nil
	case "rate-limit":
		return strconv.FormatFloat(cfg.SynctexRateLimit, 'g', -1, 64), nil
	case "parallelism":
		return strconv.Itoa(cfg.Parallelism), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.GlobalConfig, key, value string) error {
	switch key {
	case "synctex-exe":
		cfg.SynctexExe = value
	case "default-sort":
		if _, err := report.ParseSortMode(value); err != nil {
			return err
		}
		cfg.DefaultSort = value
	case "rate-limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("rate-limit must be a positive number")
		}
		cfg.SynctexRateLimit = f
	case "parallelism":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("parallelism must be a positive integer")
		}
		cfg.Parallelism = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
