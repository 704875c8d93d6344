package monitoring

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naokiys/emprecord/cmd/cli/api"
	"github.com/naokiys/emprecord/cmd/cli/output"
	"github.com/naokiys/emprecord/cmd/cli/root"
	"github.com/naokiys/emprecord/internal/models"
)

func init() {
	monitoringCmd := &cobra.Command{
		Use:   "monitoring",
		Short: "Show service monitoring snapshots",
	}
	monitoringCmd.AddCommand(logsCmd(), cacheCmd(), txCmd(), dbCmd())
	root.GetRoot().AddCommand(monitoringCmd)
}

func logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show log counters and the rolling health verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.LogStats
			if err := api.Get("/monitoring/logs/stats", &snap); err != nil {
				return err
			}
			var health models.LogHealth
			if err := api.Get("/monitoring/logs/health", &health); err != nil {
				return err
			}

			pairs := [][2]interface{}{
				{"Status", health.Status},
				{"Total logs", snap.TotalLogs},
				{"Total errors", snap.TotalErrors},
				{"Error rate", fmt.Sprintf("%.2f%%", snap.ErrorRate*100)},
				{"Mean processing (ms)", fmt.Sprintf("%.3f", snap.MeanProcessingMs)},
			}
			for cat, n := range snap.ByCategory {
				pairs = append(pairs, [2]interface{}{"Category " + cat, n})
			}
			for typ, n := range snap.ByErrorType {
				pairs = append(pairs, [2]interface{}{"Errors " + typ, n})
			}
			output.RenderKV(pairs)
			return nil
		},
	}
}

func cacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show per-cache hit rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.CacheStats
			if err := api.Get("/monitoring/cache/stats", &snap); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(snap.Caches))
			for name, c := range snap.Caches {
				rows = append(rows, []interface{}{
					name, c.Hits, c.Misses, c.Puts, c.Evicts,
					fmt.Sprintf("%.2f%%", c.HitRate*100),
				})
			}
			output.RenderTable([]string{"Cache", "Hits", "Misses", "Puts", "Evicts", "Hit rate"}, rows)
			fmt.Printf("Overall hit rate: %.2f%%\n", snap.HitRate*100)
			return nil
		},
	}
}

func txCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx",
		Short: "Show business transaction counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.TransactionStats
			if err := api.Get("/monitoring/transaction/stats", &snap); err != nil {
				return err
			}

			pairs := [][2]interface{}{
				{"Starts", snap.Starts},
				{"Commits", snap.Commits},
				{"Rollbacks", snap.Rollbacks},
				{"Errors", snap.Errors},
				{"Active", snap.Active},
				{"Mean duration (ms)", fmt.Sprintf("%.3f", snap.MeanDurationMs)},
			}
			for op, n := range snap.ByOperation {
				pairs = append(pairs, [2]interface{}{"Op " + op, n})
			}
			output.RenderKV(pairs)
			return nil
		},
	}
}

func dbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db",
		Short: "Show the composite database snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.DatabaseStats
			if err := api.Get("/monitoring/database/stats", &snap); err != nil {
				return err
			}

			output.RenderKV([][2]interface{}{
				{"Health", snap.Health.Status},
				{"Version", snap.Health.Version},
				{"Database", snap.Health.CurrentDatabase},
				{"Connections active", snap.Connections.Active},
				{"Connections idle", snap.Connections.Idle},
				{"Connections max", snap.Connections.Max},
				{"Pool open", snap.Connections.PoolOpen},
				{"Commits", snap.Performance.Commits},
				{"Rollbacks", snap.Performance.Rollbacks},
				{"Cache hit ratio", fmt.Sprintf("%.2f%%", snap.Performance.CacheHitRatio*100)},
			})

			rows := make([][]interface{}, 0, len(snap.Tables))
			for _, tbl := range snap.Tables {
				rows = append(rows, []interface{}{
					tbl.TableName, tbl.RowCount, tbl.Inserts, tbl.Updates, tbl.Deletes,
				})
			}
			output.RenderTable([]string{"Table", "Rows", "Inserts", "Updates", "Deletes"}, rows)
			return nil
		},
	}
}
