package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"AgriChain/internal/di"
	"AgriChain/internal/domain/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	trendStyles = map[models.Trend]lipgloss.Style{
		models.TrendUp:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		models.TrendDown:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		models.TrendStable: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
	}
)

func forecastCmd() *cobra.Command {
	var (
		commodity string
		market    string
		days      int
		dataPath  string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast prices for one commodity at one market",
		Example: `  agrichain forecast --commodity Onion --market Lasalgaon --days 14
  agrichain forecast --commodity Wheat --market Pune --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dataPath != "" {
				cfg.History.Backend = "csv"
				cfg.History.Path = dataPath
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.Forecast.DefaultDays
			}
			cfg.Logger.Output = "stderr"
			if !cmd.Flags().Changed("verbose") {
				cfg.Logger.Level = "warn"
			}

			svc, cleanup, err := di.InitializeForecaster(cfg)
			if err != nil {
				return fmt.Errorf("forecaster initialization failed: %w", err)
			}
			defer cleanup()

			ctx := cmd.Context()
			if err := svc.Warm(ctx); err != nil {
				return err
			}
			res, err := svc.PredictFuturePrices(ctx, commodity, market, days)
			if err != nil {
				return err
			}
			if res == nil {
				return errors.New(models.InsufficientDataMessage(commodity, market))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(models.NewForecastResponse(res))
			}
			printForecast(out, models.NewForecastResponse(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&commodity, "commodity", "", "commodity name, e.g. Onion")
	cmd.Flags().StringVar(&market, "market", "", "market name, e.g. Lasalgaon")
	cmd.Flags().IntVar(&days, "days", 30, "days to forecast (default from forecast.default_days)")
	cmd.Flags().StringVar(&dataPath, "data", "", "price CSV to read instead of the configured history")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API response body")
	cmd.Flags().Bool("verbose", false, "log at the configured level")
	_ = cmd.MarkFlagRequired("commodity")
	_ = cmd.MarkFlagRequired("market")

	return cmd
}

func printForecast(w io.Writer, r *models.ForecastResponse) {
	trend := trendStyles[r.Trend].Render(strings.ToUpper(string(r.Trend)))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s @ %s", r.Commodity, r.Market)))
	fmt.Fprintf(w, "current ₹%.0f   7d ₹%.0f   14d ₹%.0f   30d ₹%.0f   trend %s   confidence %.1f%%\n",
		r.CurrentPrice, r.Price7d, r.Price14d, r.Price30d, trend, r.Confidence)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("trained on %d rows, confidence scored on the latest %d", r.TrainingRows, r.DataPoints)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-14s %10s %10s %10s", "Date", "Price", "Low", "High")))
	for _, p := range r.Predictions {
		fmt.Fprintf(w, "%-14s %10.0f %10.0f %10.0f\n", p.Date, p.Price, p.Low, p.High)
	}
}
