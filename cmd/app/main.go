package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"AgriChain/pkg/config"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "agrichain",
		Short: "Mandi price forecasting",
		Long: `agrichain trains a random forest per commodity and market from daily
mandi prices and forecasts the coming days with a 95% band.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(forecastCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults plus environment when the default
// config file is absent; an explicitly passed file must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}
