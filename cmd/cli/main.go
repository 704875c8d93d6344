package main

import (
	"fmt"
	"os"

	"github.com/naokiys/emprecord/cmd/cli/root"

	// Command packages register themselves on the root command.
	_ "github.com/naokiys/emprecord/cmd/cli/audit"
	_ "github.com/naokiys/emprecord/cmd/cli/employees"
	_ "github.com/naokiys/emprecord/cmd/cli/monitoring"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
