package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"platewright/internal/config"
	"platewright/internal/logging"
	"platewright/internal/manifest"
	"platewright/internal/metrics"
	"platewright/internal/protocol"
	"platewright/internal/protocols"
	"platewright/internal/runctx"
)

type compileOptions struct {
	protocolName string
	paramsPath   string
	outputPath   string
	metricsFile  string
	summary      bool
	noClose      bool
}

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var opts compileOptions

	cmd := &cobra.Command{
		Use:   "compile [manifest]",
		Short: "Compile a protocol into an instruction document",
		Long: `Resolve a protocol's inputs from a manifest (JSON or YAML), run the
registered protocol function and write the compiled document as JSON.

Without a manifest argument the built-in manifest is used. Parameters come
from --params, or from the protocol's preview when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := ""
			if len(args) == 1 {
				manifestPath = args[0]
			}
			return runCompile(cmd, ctx, manifestPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.protocolName, "protocol", "p", "", "Protocol to compile (required when the manifest declares several)")
	cmd.Flags().StringVar(&opts.paramsPath, "params", "", "Parameters file (JSON or YAML) with refs and parameters")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the document to this file instead of stdout")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus counters to this textfile (overrides paths.metrics_file)")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print ref and instruction tables to stderr instead of the document")
	cmd.Flags().BoolVar(&opts.noClose, "no-close", false, "Skip the closing pass that covers or seals stored containers")
	return cmd
}

func runCompile(cmd *cobra.Command, ctx *commandContext, manifestPath string, opts compileOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	info, err := selectProtocol(m, opts.protocolName)
	if err != nil {
		return err
	}
	entry, err := protocols.Builtin().Lookup(info.Name)
	if err != nil {
		return err
	}

	doc := info.Preview
	if path := strings.TrimSpace(opts.paramsPath); path != "" {
		if doc, err = manifest.LoadDocument(path); err != nil {
			return err
		}
	}

	runCtx := runctx.WithProtocol(cmd.Context(), info.Name)
	runCtx = runctx.WithManifest(runCtx, manifestLabel(manifestPath))

	recorder := metrics.New()
	p, err := newSession(runCtx, ctx, cfg, logger, recorder)
	if err != nil {
		return err
	}
	runCtx = p.Context(runCtx)
	log := logging.WithContext(runCtx, logger)

	err = compileProtocol(p, entry, info, doc)
	closed := 0
	if err == nil && cfg.Compile.CloseContainers && !opts.noClose {
		closed = p.Close()
	}
	recorder.CompileFinished(info.Name, err)
	if metricsErr := recorder.WriteTextfile(metricsPath(cfg, opts)); metricsErr != nil {
		logging.WarnWithContext(log, "metrics textfile not written", "metrics_write_failed",
			logging.Error(metricsErr),
			logging.String(logging.FieldImpact, "compile counters are missing for this run"),
		)
	}
	if err != nil {
		return fmt.Errorf("compile %s: %w", info.Name, err)
	}

	log.Info("protocol compiled",
		logging.Int("instructions", len(p.Instructions())),
		logging.Int("closed", closed),
	)

	if opts.summary {
		return writeSummary(cmd.ErrOrStderr(), p.Document())
	}
	return writeDocument(cmd.OutOrStdout(), opts.outputPath, p, cfg.Compile.Indent)
}

func newSession(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, logger *slog.Logger, observer protocol.Observer) (*protocol.Protocol, error) {
	cat, err := cmdCtx.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	method, shape, err := dispenseDefaults(cfg.Dispense)
	if err != nil {
		return nil, err
	}
	return protocol.New(cat,
		protocol.WithLogger(logging.WithContext(ctx, logger)),
		protocol.WithComponentLevels(cfg.Logging.ComponentLevels),
		protocol.WithObserver(observer),
		protocol.WithDispenseDefaults(method, shape),
	), nil
}

func compileProtocol(p *protocol.Protocol, entry protocols.Entry, info manifest.ProtocolInfo, doc manifest.Document) error {
	params, err := manifest.Resolve(p, info, doc)
	if err != nil {
		return err
	}
	return entry.Run(p, params)
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return protocols.BuiltinManifest()
	}
	return manifest.Load(path)
}

func manifestLabel(path string) string {
	if strings.TrimSpace(path) == "" {
		return "builtin"
	}
	return path
}

func selectProtocol(m *manifest.Manifest, name string) (manifest.ProtocolInfo, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		return m.Protocol(name)
	}
	if len(m.Protocols) == 1 {
		return m.Protocols[0], nil
	}
	return manifest.ProtocolInfo{}, fmt.Errorf("manifest declares %d protocols; choose one with --protocol (%s)",
		len(m.Protocols), strings.Join(m.Names(), ", "))
}

func metricsPath(cfg *config.Config, opts compileOptions) string {
	if path := strings.TrimSpace(opts.metricsFile); path != "" {
		return path
	}
	return cfg.Paths.MetricsFile
}

func writeSummary(w io.Writer, doc protocol.Document) error {
	names := make([]string, 0, len(doc.Refs))
	for name := range doc.Refs {
		names = append(names, name)
	}
	sort.Strings(names)

	refRows := make([][]string, 0, len(names))
	for _, name := range names {
		entry := doc.Refs[name]
		container := entry.New
		if entry.ID != "" {
			container = "id " + entry.ID
		}
		disposition := "discard"
		if entry.Store != nil {
			disposition = entry.Store.Where
		}
		refRows = append(refRows, []string{name, container, disposition, entry.Cover})
	}

	counts := map[string]int{}
	var order []string
	for _, inst := range doc.Instructions {
		if _, seen := counts[inst.Op]; !seen {
			order = append(order, inst.Op)
		}
		counts[inst.Op]++
	}
	title := cases.Title(language.Und)
	opRows := make([][]string, 0, len(order))
	for _, op := range order {
		opRows = append(opRows, []string{title.String(strings.ReplaceAll(op, "_", " ")), strconv.Itoa(counts[op])})
	}

	colorize := shouldColorize(w)
	for _, line := range renderSectionHeader("Refs", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderTable([]string{"Ref", "Container", "Store", "Cover"}, refRows, nil))
	fmt.Fprintln(w)
	for _, line := range renderSectionHeader("Instructions", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderTable([]string{"Op", "Count"}, opRows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(w, renderStatusLine("Total", statusOK, strconv.Itoa(len(doc.Instructions))+" instructions", colorize))
	return nil
}
