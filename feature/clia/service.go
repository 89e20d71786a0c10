package clia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"clia-tracker/core/output"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"
	"clia-tracker/core/storage"
	"clia-tracker/core/tabular"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exporter stores completed runs, e.g. *database.Exporter.
type Exporter interface {
	Export(ctx context.Context, run *reconcile.Run) error
}

// Settings holds what a Service needs from configuration.
type Settings struct {
	Reconcile reconcile.Config
	Input     tabular.Config
	// Bucket and Prefix locate published output files.
	Bucket string
	Prefix string
}

// Request describes one reconciliation.
type Request struct {
	// Baseline is the prior master, a local path or s3:// URI.
	Baseline string
	// Inputs are the new captures. Directories and s3:// prefixes ending in
	// "/" are expanded to the .csv files they hold.
	Inputs []string
	// Force skips the churn safety check.
	Force bool
	// DryRun reconciles without writing, publishing or exporting.
	DryRun bool
	// Publish uploads the written files to object storage.
	Publish bool
	// Export stores the run in the database.
	Export bool
}

// Upload is an input received in memory, e.g. an HTTP multipart file.
type Upload struct {
	Name string
	Body io.Reader
}

// Outcome is the result of a Service run.
type Outcome struct {
	Run      *reconcile.Run
	Baseline *record.Set
	Combined *record.Set
	// Files lists what was written. Empty on a dry run.
	Files []output.File
	// Published lists the object keys uploaded.
	Published []string
}

// Service runs reconciliations end to end.
type Service struct {
	settings Settings
	resolver *storage.Resolver
	store    storage.Client
	writer   *output.Writer
	exporter Exporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the service. store and exporter may be nil; requests
// needing them then fail.
func NewService(settings Settings, writer *output.Writer, store storage.Client, exporter Exporter, logger *zap.Logger) *Service {
	if settings.Reconcile.KeyColumn == "" {
		settings.Reconcile.KeyColumn = KeyColumn
	}
	return &Service{
		settings: settings,
		resolver: storage.NewResolver(store),
		store:    store,
		writer:   writer,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// KeyColumn returns the configured key column.
func (s *Service) KeyColumn() string {
	return s.settings.Reconcile.KeyColumn
}

// options returns the parser options for the baseline and for captures.
// Only captures may be headerless; the baseline is a previous master.
func (s *Service) options() (baseline, inputs tabular.Options, err error) {
	inputs, err = InputConfig(s.settings.Input).Options(s.KeyColumn(), Columns)
	if err != nil {
		return tabular.Options{}, tabular.Options{}, err
	}
	baseline = inputs
	baseline.Columns = nil
	return baseline, inputs, nil
}

// Run loads the request's files and reconciles them.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.Baseline == "" || len(req.Inputs) == 0 {
		return nil, errors.New("a baseline and at least one new data input are required")
	}
	baseOpts, inputOpts, err := s.options()
	if err != nil {
		return nil, err
	}

	paths, err := s.resolver.Expand(ctx, req.Inputs)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files found in %v", req.Inputs)
	}

	s.logger.Info("Loading baseline", zap.String("path", req.Baseline))
	baseline, err := tabular.LoadFrom(ctx, s.resolver, req.Baseline, baseOpts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loading new data", zap.Int("files", len(paths)))
	sets, err := tabular.LoadAll(ctx, s.resolver, paths, inputOpts)
	if err != nil {
		return nil, err
	}

	// The run records the files combined, in combine order.
	req.Inputs = paths
	return s.reconcile(ctx, req, baseline, sets)
}

// RunUploads reconciles inputs already held in memory.
func (s *Service) RunUploads(ctx context.Context, req Request, baseline Upload, inputs []Upload) (*Outcome, error) {
	if len(inputs) == 0 {
		return nil, errors.New("at least one new data input is required")
	}
	baseOpts, inputOpts, err := s.options()
	if err != nil {
		return nil, err
	}

	base, err := tabular.Load(baseline.Body, baseline.Name, baseOpts)
	if err != nil {
		return nil, err
	}
	sets := make([]*record.Set, 0, len(inputs))
	for _, in := range inputs {
		set, err := tabular.Load(in.Body, in.Name, inputOpts)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	req.Baseline = baseline.Name
	req.Inputs = make([]string, 0, len(sets))
	for _, set := range sets {
		req.Inputs = append(req.Inputs, set.Name)
	}
	return s.reconcile(ctx, req, base, sets)
}

func (s *Service) reconcile(ctx context.Context, req Request, baseline *record.Set, sets []*record.Set) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	warnings := reconcile.CompareSchemas(baseline, sets)
	for _, w := range warnings {
		s.logger.Warn("Input columns differ from baseline",
			zap.String("source", w.Source),
			zap.Strings("missing", w.Missing),
			zap.Strings("extra", w.Extra),
		)
	}

	combined, stats := reconcile.Combine(sets,
		reconcile.WithKeyColumn(s.KeyColumn()),
		reconcile.WithDuplicateHook(func(d reconcile.Duplicate) {
			s.logger.Debug("Duplicate key collapsed",
				zap.String("key", d.Key),
				zap.Stringer("kept", d.Kept),
				zap.Stringer("dropped", d.Dropped),
			)
		}),
	)

	policy, err := reconcile.ParseDuplicatePolicy(s.settings.Reconcile.BaselineDuplicates)
	if err != nil {
		return nil, err
	}
	res, err := reconcile.Reconcile(baseline, combined, reconcile.Options{BaselineDuplicates: policy})
	if err != nil {
		return nil, err
	}
	res.Summary.Duplicates = stats.Duplicates

	if req.Force {
		s.logger.Warn("Safety rails bypassed")
	} else if err := reconcile.CheckChurn(res.Summary, s.settings.Reconcile.MaxClosedRatio); err != nil {
		return nil, err
	}

	run := &reconcile.Run{
		ID:             uuid.NewString(),
		GeneratedAt:    s.now(),
		Baseline:       req.Baseline,
		Inputs:         req.Inputs,
		KeyColumn:      s.KeyColumn(),
		Stats:          stats,
		SchemaWarnings: warnings,
		Result:         res,
	}
	out := &Outcome{Run: run, Baseline: baseline, Combined: combined}

	s.logger.Info("Reconciliation complete",
		zap.String("run_id", run.ID),
		zap.Int("new", res.Summary.New),
		zap.Int("closed", res.Summary.Closed),
		zap.Int("unchanged", res.Summary.Unchanged),
		zap.Int("duplicates", res.Summary.Duplicates),
	)

	if req.DryRun {
		s.logger.Info("Dry run, nothing written")
		return out, nil
	}

	if out.Files, err = s.writer.Write(run); err != nil {
		return nil, err
	}

	if req.Publish {
		if out.Published, err = s.publish(ctx, run, out.Files); err != nil {
			return out, err
		}
	}

	if req.Export {
		if s.exporter == nil {
			return out, errors.New("database export is not configured")
		}
		if err := s.exporter.Export(ctx, run); err != nil {
			return out, err
		}
		s.logger.Info("Run exported", zap.String("run_id", run.ID))
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, run *reconcile.Run, files []output.File) ([]string, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	keys, err := storage.Publish(ctx, s.store, s.settings.Bucket, path.Join(s.settings.Prefix, run.ID), paths)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Results published", zap.String("bucket", s.settings.Bucket), zap.Int("objects", len(keys)))
	return keys, nil
}
