// Package extract implements endpoint discovery: walking each source
// file's structural view to find routable endpoint declarations and
// classifying the authorization calls inside their registration
// methods.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/permaudit/permaudit/internal/model"
	"github.com/permaudit/permaudit/internal/source"
)

// Registration markers recognized by the extractor. These names are
// the scanning convention's fixed vocabulary.
const (
	// CapabilityRoutable marks a declaration as a routable endpoint.
	CapabilityRoutable = "IEndpoint"

	// RegistrationMethod is the method scanned for registration and
	// authorization calls.
	RegistrationMethod = "MapEndpoint"

	// CallRequireAuthorization marks an authentication requirement.
	CallRequireAuthorization = "RequireAuthorization"

	// CallRequirePermission marks a permission requirement; its first
	// literal argument is the declared permission.
	CallRequirePermission = "RequirePermission"
)

// routeCalls maps route-registration call names to HTTP verbs, one
// call name per recognized verb.
var routeCalls = map[string]model.Verb{
	"MapGet":    model.VerbGet,
	"MapPost":   model.VerbPost,
	"MapPut":    model.VerbPut,
	"MapPatch":  model.VerbPatch,
	"MapDelete": model.VerbDelete,
}

// Extractor discovers endpoint descriptors in a project's source
// files. Files are processed independently and in parallel; a failure
// or panic while scanning one file is isolated to that file.
type Extractor struct {
	// adapter provides the structural view of source files.
	adapter source.Adapter

	// concurrency bounds parallel file scanning.
	concurrency int

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithConcurrency sets the maximum number of files scanned in
// parallel. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor reading through the given adapter.
func New(adapter source.Adapter, opts ...Option) *Extractor {
	e := &Extractor{
		adapter:     adapter,
		concurrency: runtime.NumCPU(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Discover scans every source file of the project and returns the
// endpoint descriptors found, in file order. Unreadable or unparsable
// files are skipped silently (logged at debug level only); a cancelled
// context aborts the remaining files.
//
// Each file's intermediate state is owned exclusively by the goroutine
// scanning it; the results slice is index-partitioned so no locking is
// needed.
func (e *Extractor) Discover(ctx context.Context, project source.Project) ([]model.EndpointDescriptor, error) {
	found := make([]*model.EndpointDescriptor, len(project.SourceFiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, file := range project.SourceFiles {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			d, err := e.scanFile(ctx, project, file)
			if err != nil {
				e.logger.Debug("skipping file",
					"project", project.Name,
					"file", file,
					"error", err,
				)
				return nil
			}
			found[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	descriptors := make([]model.EndpointDescriptor, 0, len(found))
	for _, d := range found {
		if d != nil {
			descriptors = append(descriptors, *d)
		}
	}

	e.logger.Debug("project extraction complete",
		"project", project.Name,
		"files", len(project.SourceFiles),
		"endpoints", len(descriptors),
	)

	return descriptors, nil
}

// scanFile scans one source file, returning at most one descriptor.
// A nil descriptor with nil error means the file contains no routable
// endpoint. Panics from the adapter are converted to errors so one
// corrupt file cannot take down the scan.
func (e *Extractor) scanFile(ctx context.Context, project source.Project, file string) (d *model.EndpointDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("panic while scanning %s: %v", file, r)
		}
	}()

	declarations, err := e.adapter.ListDeclarations(ctx, file)
	if err != nil {
		return nil, err
	}

	// Only the first routable declaration per file is processed.
	var endpoint *source.Declaration
	for i := range declarations {
		if declarations[i].Implements(CapabilityRoutable) {
			endpoint = &declarations[i]
			break
		}
	}
	if endpoint == nil {
		return nil, nil
	}

	method, ok := endpoint.Method(RegistrationMethod)
	if !ok {
		return nil, nil
	}

	descriptor := model.NewEndpointDescriptor(
		endpoint.Name,
		source.RelativeLocation(project.Path, file),
	)

	for _, call := range method.Calls {
		switch {
		case routeCalls[call.CalleeName] != "":
			// Last registration call wins.
			descriptor.HTTPVerb = routeCalls[call.CalleeName]
			if call.HasLiteralArg {
				descriptor.Route = call.FirstLiteralArg
			} else {
				descriptor.Route = ""
			}

		case call.CalleeName == CallRequireAuthorization:
			descriptor = model.WithAuthenticationRequired(descriptor)

		case call.CalleeName == CallRequirePermission && call.HasLiteralArg:
			descriptor = model.WithPermissionRequired(descriptor, call.FirstLiteralArg)
		}
	}

	return &descriptor, nil
}
