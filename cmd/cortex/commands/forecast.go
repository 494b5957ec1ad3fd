package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexbi/cortex/internal/contracts"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project daily revenue",
	Long: `Fit a trend over the trailing daily revenue history and print the
projection with confidence bounds.

Example:
  go run ./cmd/cortex forecast
  go run ./cmd/cortex forecast --days 14`,
	RunE: runForecast,
}

var forecastDays int

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().IntVar(&forecastDays, "days", 30, "forecast horizon in days (7-90)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := a.forecaster.BuildReport(ctx, a.calendar, a.orders, a.cfg.Analytics.ForecastHistoryDays, forecastDays)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientData) {
			return fmt.Errorf("not enough sales history to fit a forecast (need %d days)", a.cfg.Analytics.ForecastMinPoints)
		}
		return fmt.Errorf("build forecast: %w", err)
	}

	fmt.Printf("=== Sales Forecast (%s) ===\n\n", report.Model.Method)
	fmt.Printf("Training days: %d\n", report.Model.TrainingDays)
	if report.Model.TrendSlope != nil {
		fmt.Printf("Trend slope:   %+.2f/day\n", *report.Model.TrendSlope)
	}
	fmt.Println()

	for _, p := range report.Points {
		if p.Predicted == nil {
			fmt.Printf("  %s  %-9s  --\n", p.Date.Format("2006-01-02"), p.DayOfWeek)
			continue
		}
		fmt.Printf("  %s  %-9s  %10.2f  [%.2f - %.2f]\n",
			p.Date.Format("2006-01-02"), p.DayOfWeek,
			*p.Predicted, *p.LowerBound, *p.UpperBound)
	}

	fmt.Printf("\nTotal predicted:   %.2f\n", report.Summary.TotalPredicted)
	fmt.Printf("Avg daily revenue: %.2f\n", report.Summary.AvgDailyRevenue)
	if report.Summary.YoYChange != nil {
		fmt.Printf("YoY change:        %+.2f%% (last year: %.2f)\n",
			*report.Summary.YoYChange, report.Summary.LastYearRevenue)
	}

	return nil
}
