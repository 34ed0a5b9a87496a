package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"platewright/internal/catalog"
	"platewright/internal/config"
	"platewright/internal/fileutil"
	"platewright/internal/labware"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and maintain container types",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogExportCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List container types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			types := cat.List()
			if asJSON {
				return writeJSON(cmd, types)
			}
			rows := make([][]string, 0, len(types))
			for _, ct := range types {
				rows = append(rows, []string{
					ct.Shortname,
					strconv.Itoa(ct.WellCount),
					strconv.Itoa(ct.ColCount),
					ct.WellVolume.String(),
					strings.Join(ct.CoverTypes, ", "),
					strings.Join(ct.SealTypes, ", "),
					yesNo(ct.IsTube),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Shortname", "Wells", "Cols", "Well Volume", "Covers", "Seals", "Tube"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <shortname>",
		Short: "Show one container type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			ct, err := cat.Lookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range containerTypeLines(ct, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func containerTypeLines(ct labware.ContainerType, colorize bool) []string {
	lines := renderSectionHeader(ct.Shortname, colorize)
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, renderStatusLine(label, statusInfo, value, colorize))
	}
	field("Name", ct.Name)
	field("Geometry", fmt.Sprintf("%d wells, %d rows x %d columns", ct.WellCount, ct.RowCount(), ct.ColCount))
	field("Well volume", ct.WellVolume.String())
	field("Dead volume", ct.DeadVolume.String())
	field("Safe min volume", ct.SafeMinVolume.String())
	field("Capabilities", strings.Join(ct.Capabilities, ", "))
	field("Close with", ct.PrioritizeSealOrCover+" first")
	field("Vendor", strings.TrimSpace(ct.Vendor+" "+ct.CatalogNo))

	closures := func(label string, kinds []string) {
		if ct.IsTube {
			lines = append(lines, renderStatusLine(label, statusInfo, "not tracked for tubes", colorize))
			return
		}
		if len(kinds) == 0 {
			lines = append(lines, renderStatusLine(label, statusWarn, "none", colorize))
			return
		}
		lines = append(lines, renderStatusLine(label, statusOK, strings.Join(kinds, ", "), colorize))
	}
	closures("Covers", ct.CoverTypes)
	closures("Seals", ct.SealTypes)
	return lines
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.toml>",
		Short: "Import container types from a TOML file into the catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve catalog file: %w", err)
			}
			count, err := catalog.ImportFile(cmd.Context(), cfg.Paths.CatalogDB, source, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Import", statusOK,
				fmt.Sprintf("%d container types written to %s", count, cfg.Paths.CatalogDB), colorize))
			if cfg.Catalog.Source != config.CatalogSQLite {
				fmt.Fprintln(out, renderStatusLine("Catalog source", statusWarn,
					`set catalog.source = "sqlite" to compile with imported types`, colorize))
			}
			return nil
		},
	}
}

func newCatalogExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the effective catalog as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				return cat.EncodeTOML(cmd.OutOrStdout())
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := fileutil.WriteAtomic(expanded, 0o644, cat.EncodeTOML); err != nil {
				return fmt.Errorf("export catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d container types to %s\n", cat.Len(), expanded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (defaults to stdout)")
	return cmd
}
