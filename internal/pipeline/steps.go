package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/permaudit/permaudit/internal/aggregate"
	"github.com/permaudit/permaudit/internal/convention"
	"github.com/permaudit/permaudit/internal/extract"
	"github.com/permaudit/permaudit/internal/model"
	"github.com/permaudit/permaudit/internal/reconcile"
	"github.com/permaudit/permaudit/internal/source"
	"github.com/permaudit/permaudit/internal/source/csharp"
)

// LocateStep enumerates projects under the scan root.
//
// Design decision: Locating is a separate step because:
// 1. A missing root is the only fatal condition and surfaces here
// 2. Results feed every subsequent step
// 3. It keeps file-system traversal out of the extraction stage
type LocateStep struct {
	// locator enumerates project and source files.
	locator *source.Locator

	// logger for structured logging.
	logger *slog.Logger
}

// LocateStepOption configures a LocateStep.
type LocateStepOption func(*LocateStep)

// WithLocateLogger sets a custom logger for the locate step.
func WithLocateLogger(logger *slog.Logger) LocateStepOption {
	return func(s *LocateStep) {
		s.logger = logger
	}
}

// NewLocateStep creates a new project location step.
func NewLocateStep(locator *source.Locator, opts ...LocateStepOption) *LocateStep {
	s := &LocateStep{
		locator: locator,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return "locate"
}

// Do executes the locate step. A missing scan root is fatal; an empty
// root records a warning and lets the scan complete with zero results.
func (s *LocateStep) Do(_ context.Context, scan *Scan) error {
	projects, err := s.locator.ListProjects(scan.Root)
	if err != nil {
		if errors.Is(err, source.ErrRootNotFound) {
			return fmt.Errorf("locating projects under %s: %w", scan.Root, err)
		}
		return err
	}

	scan.Projects = projects
	if len(projects) == 0 {
		s.logger.Warn("no projects found", "root", scan.Root)
		scan.Result.Summary.AddWarning(model.Warning{
			Type:    model.WarningNoProjects,
			Message: fmt.Sprintf("no project files found under %s", scan.Root),
		})
		return nil
	}

	s.logger.Info("projects located",
		"root", scan.Root,
		"count", len(projects),
	)
	return nil
}

// ExtractStep discovers endpoints in every located project.
// Projects are processed concurrently with a bounded limit; a failure
// in one project discards that project with a warning and leaves the
// rest of the scan intact.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each project gets its own goroutine, but only 'concurrency'
// goroutines run simultaneously.
type ExtractStep struct {
	// adapter provides the structural view of source files.
	adapter source.Adapter

	// concurrency bounds concurrent project extraction.
	concurrency int

	// logger for structured logging.
	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractConcurrency sets the maximum number of projects extracted
// in parallel. Values below one are ignored.
func WithExtractConcurrency(n int) ExtractStepOption {
	return func(s *ExtractStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates a new endpoint extraction step.
func NewExtractStep(adapter source.Adapter, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		adapter:     adapter,
		concurrency: runtime.NumCPU(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(ctx context.Context, scan *Scan) error {
	type outcome struct {
		descriptors []model.EndpointDescriptor
		err         error
	}

	// Pre-allocate to keep project order without locking.
	outcomes := make([]outcome, len(scan.Projects))

	extractor := extract.New(s.adapter,
		extract.WithConcurrency(s.concurrency),
		extract.WithLogger(s.logger),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, project := range scan.Projects {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			descriptors, err := extractor.Discover(ctx, project)
			if err != nil && ctx.Err() != nil {
				return err
			}
			outcomes[i] = outcome{descriptors: descriptors, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Fold outcomes sequentially so the result stays in project order.
	for i, project := range scan.Projects {
		if outcomes[i].err != nil {
			s.logger.Warn("project analysis failed",
				"project", project.Name,
				"error", outcomes[i].err,
			)
			scan.Result.Summary.AddWarning(model.Warning{
				Type:     model.WarningProjectAnalysisError,
				Endpoint: project.Name,
				Message:  fmt.Sprintf("analysis of %s failed: %v", project.Name, outcomes[i].err),
			})
			continue
		}

		scan.Result.AddProject(project.Name, project.Path)
		scan.Descriptors[project.Name] = outcomes[i].descriptors
	}

	return nil
}

// ResolveStep applies the permission naming convention to every
// discovered endpoint.
type ResolveStep struct {
	// rules hold the verb mapping and resource inference tables.
	rules *convention.Rules

	// logger for structured logging.
	logger *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a new convention resolution step.
func NewResolveStep(rules *convention.Rules, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{
		rules:  rules,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do executes the resolve step.
func (s *ResolveStep) Do(ctx context.Context, scan *Scan) error {
	for name, descriptors := range scan.Descriptors {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range descriptors {
			descriptors[i] = convention.Resolve(descriptors[i], s.rules)
		}
		scan.Descriptors[name] = descriptors
	}

	return nil
}

// AggregateStep folds resolved descriptors into the scan result:
// summary counters, mismatch warnings, and per-project permission
// lists.
type AggregateStep struct{}

// NewAggregateStep creates a new aggregation step.
func NewAggregateStep() *AggregateStep {
	return &AggregateStep{}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return "aggregate"
}

// Do executes the aggregate step. Projects are processed in discovery
// order so counters and warnings are deterministic.
func (s *AggregateStep) Do(_ context.Context, scan *Scan) error {
	for _, project := range scan.Result.Projects {
		descriptors := scan.Descriptors[project.Name]
		aggregate.Tally(&scan.Result.Summary, descriptors)
		aggregate.Fold(scan.Result, project.Name, descriptors)
	}
	return nil
}

// ReconcileStep resolves mismatched permissions under the configured
// policy and writes the corrections back onto the result.
//
// Design decision: Reconciliation runs after aggregation so the summary
// counters keep the pre-reconciliation classification; only the
// permission lists are corrected.
type ReconcileStep struct {
	// policy selects the reconciliation behavior.
	policy reconcile.Policy

	// coordinator applies the policy per mismatched item.
	coordinator *reconcile.Coordinator
}

// NewReconcileStep creates a new reconciliation step.
func NewReconcileStep(policy reconcile.Policy, coordinator *reconcile.Coordinator) *ReconcileStep {
	return &ReconcileStep{
		policy:      policy,
		coordinator: coordinator,
	}
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do executes the reconcile step.
func (s *ReconcileStep) Do(ctx context.Context, scan *Scan) error {
	var items []reconcile.Item
	for _, project := range scan.Result.Projects {
		for _, d := range scan.Descriptors[project.Name] {
			if d.AuthorizationState == model.StateMismatchedPermission {
				items = append(items, reconcile.Item{Project: project.Name, Descriptor: d})
			}
		}
	}
	if len(items) == 0 {
		return nil
	}

	resolved, warnings, err := s.coordinator.Reconcile(ctx, items, s.policy)
	if err != nil {
		return err
	}

	for _, item := range resolved {
		aggregate.Apply(scan.Result, item.Project, item.Descriptor)
	}
	for _, w := range warnings {
		scan.Result.Summary.AddWarning(w)
	}

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Adapter provides the structural view of source files.
	Adapter source.Adapter

	// Locator enumerates projects under the scan root.
	Locator *source.Locator

	// Rules hold the permission naming convention tables.
	Rules *convention.Rules

	// Policy selects the reconciliation behavior.
	Policy reconcile.Policy

	// Provider supplies interactive reconciliation decisions.
	Provider reconcile.DecisionProvider

	// Concurrency bounds parallel extraction.
	Concurrency int
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineAdapter overrides the source adapter.
func WithPipelineAdapter(adapter source.Adapter) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Adapter = adapter
	}
}

// WithPipelineLocator overrides the project locator.
func WithPipelineLocator(locator *source.Locator) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Locator = locator
	}
}

// WithPipelinePolicy sets the reconciliation policy.
func WithPipelinePolicy(policy reconcile.Policy) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Policy = policy
	}
}

// WithPipelineProvider sets the interactive decision provider.
func WithPipelineProvider(provider reconcile.DecisionProvider) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Provider = provider
	}
}

// WithPipelineConcurrency bounds parallel extraction.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineRules overrides the naming convention tables.
func WithPipelineRules(rules *convention.Rules) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Rules = rules
	}
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for a full authorization scan.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full scan
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// The first variadic parameter accepts pipeline options (WithLogger,
// etc). The second accepts pipeline config options
// (WithPipelinePolicy, etc).
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Adapter:     csharp.NewScanner(),
		Locator:     source.NewLocator(),
		Rules:       convention.DefaultRules(),
		Policy:      reconcile.PolicySkipAll,
		Concurrency: runtime.NumCPU(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	coordinatorOpts := []reconcile.Option{
		reconcile.WithLogger(p.logger),
	}
	if cfg.Provider != nil {
		coordinatorOpts = append(coordinatorOpts, reconcile.WithProvider(cfg.Provider))
	}

	p.AddSteps(
		NewLocateStep(cfg.Locator, WithLocateLogger(p.logger)),
		NewExtractStep(cfg.Adapter,
			WithExtractConcurrency(cfg.Concurrency),
			WithExtractLogger(p.logger),
		),
		NewResolveStep(cfg.Rules, WithResolveLogger(p.logger)),
		NewAggregateStep(),
		NewReconcileStep(cfg.Policy, reconcile.New(coordinatorOpts...)),
	)

	return p
}
