package audit

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/naokiys/emprecord/cmd/cli/api"
	"github.com/naokiys/emprecord/cmd/cli/output"
	"github.com/naokiys/emprecord/cmd/cli/root"
	"github.com/naokiys/emprecord/internal/models"
)

func init() {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and maintain the audit trail",
	}
	auditCmd.AddCommand(recentCmd(), statsCmd(), cleanupCmd())
	root.GetRoot().AddCommand(auditCmd)
}

func recentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.AuditLogEntry
			if err := api.Get(fmt.Sprintf("/audit/database/logs/recent?limit=%d", limit), &entries); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.OperationType,
					e.TableName, e.RecordID, e.UserID, e.OperationStatus, e.ExecutionTimeMs,
				})
			}
			output.RenderTable(
				[]string{"ID", "Created", "Op", "Table", "Record", "User", "Status", "Time (ms)"},
				rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Number of entries to fetch")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show audit trail statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats models.AuditStatistics
			if err := api.Get("/audit/database/stats", &stats); err != nil {
				return err
			}

			output.RenderKV([][2]interface{}{
				{"Last 24 hours", stats.Last24Hours},
				{"Last 7 days", stats.Last7Days},
				{"Last 30 days", stats.Last30Days},
				{"Inserts", stats.TotalInserts},
				{"Updates", stats.TotalUpdates},
				{"Deletes", stats.TotalDeletes},
				{"Selects", stats.TotalSelects},
				{"Success", stats.TotalSuccess},
				{"Failures", stats.TotalFailures},
				{"Rollbacks", stats.TotalRollbacks},
				{"As of", stats.Timestamp.Format("2006-01-02 15:04:05")},
			})
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete audit entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Message       string `json:"message"`
				DeletedCount  int64  `json:"deletedCount"`
				RetentionDays int    `json:"retentionDays"`
			}
			path := fmt.Sprintf("/audit/database/logs/cleanup?retentionDays=%d", retentionDays)
			if err := api.Call(http.MethodDelete, path, &resp); err != nil {
				return err
			}
			fmt.Printf("%s: deleted %d entries older than %d days\n",
				resp.Message, resp.DeletedCount, resp.RetentionDays)
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Keep entries newer than this many days")
	return cmd
}
