package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clia-tracker/core/config"
	"clia-tracker/core/database"
	"clia-tracker/core/output"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/report"
	"clia-tracker/core/storage"
	"clia-tracker/feature/clia"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// compareFlags holds the flags of the compare command.
type compareFlags struct {
	extra              bool
	force              bool
	dryRun             bool
	publish            bool
	export             bool
	headerless         bool
	maxRows            int
	outputDir          string
	prefix             string
	key                string
	columns            string
	format             string
	baselineDuplicates string
	filters            []string
}

var compareOpts compareFlags

// compareCmd reconciles a master file with new captures.
var compareCmd = &cobra.Command{
	Use:   "compare BASELINE NEW [NEW...]",
	Short: "Compare a master CLIA file with new data files",
	Long: `Compare a master CLIA CSV file with one or more new CLIA CSV files.

Labs are classified as new (only in the new data), closed (only in the master)
or unchanged (in both). The new master is the unchanged labs followed by the
new ones. Results are written to the output directory as CSV files plus a YAML
manifest.

Inputs may be local files, directories, s3://bucket/key objects, or
s3://bucket/prefix/ to read every .csv object under a prefix.

Examples:
  # Compare with four captures
  clia-tracker compare Master/Master.csv TestCaptures/data1.csv TestCaptures/data2.csv

  # Headerless CDC captures, extra views, AL labs only
  clia-tracker compare -e --columns clia --filter STATE=AL Master/Master.csv TestCaptures/

  # Report only, as JSON
  clia-tracker compare --dry-run --format json Master/Master.csv s3://captures/2024-06/`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.BoolVarP(&compareOpts.extra, "extra", "e", false, "Display some extra data (baseline, combined and filtered views)")
	f.BoolVarP(&compareOpts.force, "force", "f", false, "Bypass safety rails - very dangerous")
	f.BoolVar(&compareOpts.dryRun, "dry-run", false, "Reconcile and report without writing anything")
	f.BoolVar(&compareOpts.publish, "publish", false, "Upload result files to object storage")
	f.BoolVar(&compareOpts.export, "export", false, "Store the run in the export database")
	f.BoolVar(&compareOpts.headerless, "headerless", false, "New data files have no header row")
	f.IntVar(&compareOpts.maxRows, "max-rows", 0, "Rows shown per table, -1 for all (default from config)")
	f.StringVar(&compareOpts.outputDir, "output-dir", "", "Directory for result files (default from config)")
	f.StringVar(&compareOpts.prefix, "prefix", "", "File name prefix of result files (default from config)")
	f.StringVar(&compareOpts.key, "key", "", "Key column (default from config)")
	f.StringVar(&compareOpts.columns, "columns", "", "Column list for headerless files, or 'clia' for the CDC layout")
	f.StringVar(&compareOpts.format, "format", "", "Report format: table, json or yaml (default table)")
	f.StringVar(&compareOpts.baselineDuplicates, "baseline-duplicates", "", "Duplicate keys in the baseline: reject or last-wins")
	f.StringArrayVar(&compareOpts.filters, "filter", nil, "Extra view of the new master, COLUMN=REGEX (repeatable)")

	RootCmd.AddCommand(compareCmd)
}

// apply overrides configuration with the flags the user set.
func (o compareFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-rows") {
		cfg.Output.MaxRows = o.maxRows
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.prefix != "" {
		cfg.Output.Prefix = o.prefix
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.key != "" {
		cfg.Reconcile.KeyColumn = o.key
	}
	if o.baselineDuplicates != "" {
		cfg.Reconcile.BaselineDuplicates = o.baselineDuplicates
	}
	if flags.Changed("headerless") {
		cfg.Input.Headerless = o.headerless
	}
	if o.columns != "" {
		cfg.Input.Columns = o.columns
	}

	if _, err := report.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}
	if _, err := reconcile.ParseDuplicatePolicy(cfg.Reconcile.BaselineDuplicates); err != nil {
		return err
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	if err := compareOpts.apply(cmd, cfg); err != nil {
		return err
	}
	filters, err := clia.ParseFilters(compareOpts.filters)
	if err != nil {
		return err
	}

	// Storage is only needed for s3:// inputs and publishing.
	var store storage.Client
	if compareOpts.publish || anyRemote(args) {
		if store, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	var exporter clia.Exporter
	if compareOpts.export && !compareOpts.dryRun {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		e := database.NewExporter(db)
		if err := e.Migrate(); err != nil {
			return err
		}
		exporter = e
	}

	svc := clia.NewService(clia.Settings{
		Reconcile: cfg.Reconcile,
		Input:     cfg.Input,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	}, output.NewWriter(cfg.Output), store, exporter, l)

	l.Debug("Comparing", zap.String("baseline", args[0]), zap.Strings("new", args[1:]))
	out, err := svc.Run(ctx, clia.Request{
		Baseline: args[0],
		Inputs:   args[1:],
		Force:    compareOpts.force,
		DryRun:   compareOpts.dryRun,
		Publish:  compareOpts.publish,
		Export:   compareOpts.export,
	})
	if out != nil {
		// Files may be written even when publishing or export fails afterwards.
		doc := out.Document(cfg.Output.MaxRows, compareOpts.extra, filters)
		if renderErr := report.New(cmd.OutOrStdout(), report.DetectFormat(cfg.Output.Format)).Render(doc); renderErr != nil && err == nil {
			err = renderErr
		}
	}
	return err
}

func anyRemote(paths []string) bool {
	for _, p := range paths {
		if storage.IsRemote(p) {
			return true
		}
	}
	return false
}
