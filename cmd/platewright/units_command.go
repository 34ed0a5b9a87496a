package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platewright/internal/quantity"
)

func newUnitsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "units",
		Short:       "List known units per dimension",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dims := quantity.Dimensions()
			if asJSON {
				out := make(map[string][]string, len(dims))
				for _, dim := range dims {
					out[string(dim)] = quantity.Units(dim)
				}
				return writeJSON(cmd, out)
			}
			rows := make([][]string, 0, len(dims))
			for _, dim := range dims {
				rows = append(rows, []string{string(dim), strings.Join(quantity.Units(dim), ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dimension", "Units"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
