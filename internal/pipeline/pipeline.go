package pipeline

import (
	"context"
	"log/slog"

	"github.com/permaudit/permaudit/internal/model"
	"github.com/permaudit/permaudit/internal/source"
)

// Scan is the mutable state threaded through pipeline steps. Each step
// reads what earlier steps produced and appends its own output.
type Scan struct {
	// Root is the scan root directory.
	Root string

	// Result is the report under construction.
	Result *model.ScanResult

	// Projects are the projects found under Root, in discovery order.
	Projects []source.Project

	// Descriptors holds the resolved endpoint descriptors per project
	// name. Projects whose extraction failed have no entry.
	Descriptors map[string][]model.EndpointDescriptor
}

// NewScan creates the initial state for one scan run.
func NewScan(root, generator string) *Scan {
	return &Scan{
		Root:        root,
		Result:      model.NewScanResult(generator),
		Descriptors: make(map[string][]model.EndpointDescriptor),
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the
// accumulated scan state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., priority, dependencies)
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the scan state to
	// modify. Returns an error if the step fails critically;
	// non-critical errors should be recorded as warnings and return nil.
	Do(ctx context.Context, scan *Scan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// ProgressFunc receives pipeline progress after each completed step.
type ProgressFunc func(step string, completed, total int)

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool

	// progress is notified after each step, nil when unwanted.
	progress ProgressFunc
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, a default logger is created.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged, but subsequent
// steps still execute.
//
// Design decision: The default is to stop on error because early
// failures indicate fundamental problems (e.g., the scan root does not
// exist) that make later stages meaningless.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithProgress sets a progress callback invoked after each step.
func WithProgress(progress ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps should handle their own cancellation. This
// allows graceful cleanup between steps while still respecting
// cancellation.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete.
func (p *Pipeline) Execute(ctx context.Context, scan *Scan) error {
	for i, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"root", scan.Root,
		)

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"root", scan.Root,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"root", scan.Root,
			)
		}

		if p.progress != nil {
			p.progress(step.Name(), i+1, len(p.steps))
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
