package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"platewright/internal/protocols"
)

type protocolListing struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Declared    bool   `json:"declared"`
	Inputs      int    `json:"inputs"`
}

func newProtocolsCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "protocols",
		Short: "List registered protocol functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest(manifestPath)
			if err != nil {
				return err
			}
			registry := protocols.Builtin()

			listing := make([]protocolListing, 0)
			for _, entry := range registry.List() {
				item := protocolListing{Name: entry.Name, Description: entry.Description}
				if info, err := m.Protocol(entry.Name); err == nil {
					item.Declared = true
					item.Inputs = len(info.Inputs)
				}
				listing = append(listing, item)
			}
			missing := registry.Missing(m)

			if asJSON {
				return writeJSON(cmd, struct {
					Protocols []protocolListing `json:"protocols"`
					Missing   []string          `json:"missing,omitempty"`
				}{listing, missing})
			}

			rows := make([][]string, 0, len(listing))
			for _, item := range listing {
				rows = append(rows, []string{item.Name, item.Description, yesNo(item.Declared), strconv.Itoa(item.Inputs)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Name", "Description", "Declared", "Inputs"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			if len(missing) > 0 {
				fmt.Fprintln(out, renderStatusLine("Unregistered", statusWarn, strings.Join(missing, ", "), shouldColorize(out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Check coverage against this manifest instead of the built-in one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
