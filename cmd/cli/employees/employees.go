package employees

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/naokiys/emprecord/cmd/cli/api"
	"github.com/naokiys/emprecord/cmd/cli/output"
	"github.com/naokiys/emprecord/cmd/cli/root"
	"github.com/naokiys/emprecord/internal/models"
)

func init() {
	employeesCmd := &cobra.Command{
		Use:   "employees",
		Short: "Query employee records",
	}
	employeesCmd.AddCommand(listCmd())
	root.GetRoot().AddCommand(employeesCmd)
}

func listCmd() *cobra.Command {
	var (
		query  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees, optionally filtered by name or kana",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("limit", fmt.Sprint(limit))
			params.Set("offset", fmt.Sprint(offset))
			if query != "" {
				params.Set("q", query)
			}

			var emps []models.Employee
			if err := api.Get("/v1/employees?"+params.Encode(), &emps); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(emps))
			for _, e := range emps {
				rows = append(rows, []interface{}{
					e.ID, e.EmployeeNumber, e.LastName + " " + e.FirstName,
					e.Email, e.Department,
				})
			}
			output.RenderTable([]string{"ID", "Number", "Name", "Email", "Department"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "q", "", "Search by name or kana (partial match)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}
