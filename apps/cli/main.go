package main

import (
	"fmt"
	"os"

	"github.com/gridline-io/salesgrid/apps/cli/cmd/bootstrap"
	"github.com/gridline-io/salesgrid/apps/cli/cmd/company"
	"github.com/gridline-io/salesgrid/apps/cli/root"
)

func main() {
	root.Root().AddCommand(bootstrap.Command(), company.Command())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
