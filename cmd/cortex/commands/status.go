package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check warehouse and cache connectivity",
	Long: `Check connectivity to the warehouse and cache and print snapshot
row counts.

Example:
  go run ./cmd/cortex status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Cortex Status ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	fmt.Printf("\nWarehouse: ok (%s, %d/%d conns)\n",
		health.ResponseTime.Round(time.Millisecond),
		health.Stats.TotalConns, health.Stats.MaxConns)

	if a.redisClient.Enabled() {
		if err := a.redisClient.Ping(ctx); err != nil {
			fmt.Printf("Cache:     unreachable (%v)\n", err)
		} else {
			fmt.Println("Cache:     ok")
		}
	} else {
		fmt.Println("Cache:     disabled")
	}

	customers, err := a.customers.CustomersWithOrders(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	products, err := a.products.AllProducts(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	campaigns, err := a.campaigns.AllCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}

	scored := 0
	churned := 0
	for i := range customers {
		if customers[i].Segment != "" {
			scored++
		}
		if customers[i].IsChurned {
			churned++
		}
	}
	classified := 0
	for i := range products {
		if products[i].ABC != nil {
			classified++
		}
	}

	fmt.Printf("\nCustomers with orders: %d (%d scored, %d churned)\n", len(customers), scored, churned)
	fmt.Printf("Products:              %d (%d classified)\n", len(products), classified)
	fmt.Printf("Campaigns:             %d\n", len(campaigns))

	return nil
}
