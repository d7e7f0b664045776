// Package ingestion discovers the configured crash move folders and resolves
// their operations and layers.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/rds-dashboard/internal/cmf"
	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/evaluation"
	"github.com/mr1hm/rds-dashboard/internal/models"
	"github.com/mr1hm/rds-dashboard/internal/worker"
)

// Snapshot is everything read from disk for one run. Operations keep the
// configured order regardless of which worker resolved them.
type Snapshot struct {
	Operations []*models.Operation
	Layers     map[string][]*models.MapLayer
	Sources    map[string]evaluation.Source
}

type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OperationRoots joins each configured operation path to the storage base
// path. Paths containing glob syntax are expanded; a pattern matching nothing
// contributes nothing.
func (m *Manager) OperationRoots() ([]string, error) {
	base := filepath.Join(m.cfg.Storage.BasePath, m.cfg.Storage.OperationsPath)

	var roots []string
	seen := make(map[string]bool)
	add := func(root string) {
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}

	for _, p := range m.cfg.Storage.OperationPaths {
		full := filepath.Join(base, p)
		if !strings.ContainsAny(p, "*?[{") {
			add(full)
			continue
		}

		matches, err := doublestar.FilepathGlob(full)
		if err != nil {
			return nil, fmt.Errorf("error expanding operation path %q: %w", p, err)
		}
		if len(matches) == 0 {
			m.logger.Warn("operation path matched nothing", "pattern", full)
		}
		sort.Strings(matches)
		for _, match := range matches {
			add(match)
		}
	}
	return roots, nil
}

type resolveJob struct {
	index int
	root  string
}

// Scan resolves every operation root. An operation that cannot be resolved is
// logged once and skipped. A layer that cannot be resolved fails the scan.
func (m *Manager) Scan(ctx context.Context) (*Snapshot, error) {
	roots, err := m.OperationRoots()
	if err != nil {
		return nil, err
	}

	ops, err := m.resolveOperations(ctx, roots)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Operations: ops,
		Layers:     make(map[string][]*models.MapLayer, len(ops)),
		Sources:    make(map[string]evaluation.Source, len(ops)),
	}
	if err := m.resolveLayers(ctx, snap); err != nil {
		return nil, err
	}

	for _, op := range ops {
		if len(snap.Layers[op.ID]) == 0 {
			m.logger.Info("operation has no layers, leaving it out", "operation_id", op.ID)
		}
	}
	m.logger.Info("scan complete", "roots", len(roots), "operations", len(ops))
	return snap, nil
}

func (m *Manager) resolveOperations(ctx context.Context, roots []string) ([]*models.Operation, error) {
	resolved := make([]*models.Operation, len(roots))

	// Each job writes only its own index.
	pool := worker.NewPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, func(ctx context.Context, job resolveJob) error {
		op, err := cmf.ResolveOperation(job.root)
		if err != nil {
			m.logger.Warn("skipping operation", "path", job.root, "error", err)
			return err
		}
		resolved[job.index] = op
		return nil
	})
	pool.Start(ctx)

	for i, root := range roots {
		if !pool.Submit(ctx, resolveJob{index: i, root: root}) {
			break
		}
	}
	pool.Stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ops := make([]*models.Operation, 0, len(roots))
	seen := make(map[string]string, len(roots))
	for i, op := range resolved {
		if op == nil {
			continue
		}
		if first, dup := seen[op.ID]; dup {
			m.logger.Warn("skipping duplicate operation", "operation_id", op.ID, "path", roots[i], "first_path", first)
			continue
		}
		seen[op.ID] = roots[i]
		ops = append(ops, op)
	}

	m.logger.Debug("operations resolved", "resolved", len(ops), "failed", pool.Failed())
	return ops, nil
}

func (m *Manager) resolveLayers(ctx context.Context, snap *Snapshot) error {
	layers := make([][]*models.MapLayer, len(snap.Operations))
	sources := make([]evaluation.Source, len(snap.Operations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Worker.Count)
	for i, op := range snap.Operations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opLayers, source, err := evaluation.ResolveLayers(op, m.cfg.Storage.AllLayersProductID)
			if err != nil {
				return fmt.Errorf("operation %s: %w", op.ID, err)
			}
			layers[i], sources[i] = opLayers, source
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, op := range snap.Operations {
		snap.Layers[op.ID] = layers[i]
		snap.Sources[op.ID] = sources[i]
		m.logger.Debug("layers resolved", "operation_id", op.ID, "source", sources[i], "layers", len(layers[i]))
	}
	return nil
}
