package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/permaudit/permaudit/internal/model"
)

// Policy selects how mismatched permissions are resolved.
type Policy string

// Reconciliation policies.
const (
	// PolicyAutoAcceptAll overwrites every mismatched declaration with
	// the convention suggestion without interaction.
	PolicyAutoAcceptAll Policy = "auto"

	// PolicyInteractive asks the decision provider for each item.
	PolicyInteractive Policy = "interactive"

	// PolicySkipAll keeps every declared value; mismatches remain
	// visible only as summary warnings.
	PolicySkipAll Policy = "skip"
)

// ParsePolicy parses a policy name case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "auto":
		return PolicyAutoAcceptAll, nil
	case "interactive":
		return PolicyInteractive, nil
	case "skip":
		return PolicySkipAll, nil
	default:
		return "", fmt.Errorf("unknown reconciliation policy %q (want auto, interactive, or skip)", s)
	}
}

// DecisionKind discriminates provider decisions.
type DecisionKind int

// Decision kinds.
const (
	// DecisionAcceptSuggested overwrites the declared permission with
	// the suggestion.
	DecisionAcceptSuggested DecisionKind = iota

	// DecisionKeepCurrent keeps the declared value, thereafter treated
	// as an intentional custom permission.
	DecisionKeepCurrent

	// DecisionCustom overwrites the declared permission with a
	// caller-supplied value.
	DecisionCustom
)

// Decision is the outcome of one interactive choice.
type Decision struct {
	Kind DecisionKind

	// Custom carries the replacement value for DecisionCustom.
	Custom string
}

// Item pairs a mismatched descriptor with its owning project.
type Item struct {
	// Project is the name of the owning project.
	Project string

	// Descriptor is the mismatched endpoint.
	Descriptor model.EndpointDescriptor
}

// DecisionProvider supplies interactive decisions. Implementations may
// be a blocking terminal prompt or a scripted test double. Decisions
// are requested strictly sequentially, one outstanding request at a
// time.
type DecisionProvider interface {
	// Decide returns the decision for one mismatched endpoint.
	// An error is recovered per item as "keep current".
	Decide(ctx context.Context, item Item) (Decision, error)
}

// Notifier receives non-blocking notifications about automatic
// substitutions.
type Notifier func(item Item, accepted string)

// Coordinator resolves the mismatched set under a policy.
type Coordinator struct {
	// provider supplies decisions for PolicyInteractive. Unused (and
	// may be nil) for the other policies.
	provider DecisionProvider

	// notify reports auto-accepted substitutions. Defaults to a
	// logging notifier.
	notify Notifier

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithProvider sets the decision provider for interactive runs.
func WithProvider(p DecisionProvider) Option {
	return func(c *Coordinator) {
		c.provider = p
	}
}

// WithNotifier sets the substitution notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notify = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.notify == nil {
		c.notify = func(item Item, accepted string) {
			c.logger.Info("permission substituted",
				"project", item.Project,
				"endpoint", item.Descriptor.DeclarationName,
				"accepted", accepted,
			)
		}
	}

	return c
}

// Reconcile resolves every mismatched item under the given policy and
// returns the corrected items plus any warnings produced along the
// way. Every returned descriptor is already-protected with a non-empty
// declared permission.
//
// The whole batch may be cancelled between items via the context, but
// a single pending decision is never interrupted.
func (c *Coordinator) Reconcile(ctx context.Context, items []Item, policy Policy) ([]Item, []model.Warning, error) {
	resolved := make([]Item, 0, len(items))
	var warnings []model.Warning

	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		switch policy {
		case PolicyAutoAcceptAll:
			item.Descriptor = accept(item.Descriptor, item.Descriptor.SuggestedPermission)
			c.notify(item, item.Descriptor.DeclaredPermission)

		case PolicyInteractive:
			var warning *model.Warning
			item.Descriptor, warning = c.decideOne(ctx, item)
			if warning != nil {
				warnings = append(warnings, *warning)
			}

		case PolicySkipAll:
			// The declared value stays; the state is still folded to
			// already-protected so the mismatch does not leak past the
			// summary warning emitted during aggregation.
			item.Descriptor = accept(item.Descriptor, item.Descriptor.DeclaredPermission)

		default:
			return nil, nil, fmt.Errorf("unknown reconciliation policy %q", policy)
		}

		resolved = append(resolved, item)
	}

	return resolved, warnings, nil
}

// decideOne requests one decision and applies it. Provider failures
// degrade to "keep current" with a warning instead of aborting the
// batch.
func (c *Coordinator) decideOne(ctx context.Context, item Item) (model.EndpointDescriptor, *model.Warning) {
	decision, err := c.provider.Decide(ctx, item)
	if err != nil {
		c.logger.Warn("decision provider failed, keeping current permission",
			"project", item.Project,
			"endpoint", item.Descriptor.DeclarationName,
			"error", err,
		)
		return accept(item.Descriptor, item.Descriptor.DeclaredPermission), &model.Warning{
			Type:     model.WarningDecisionError,
			Endpoint: item.Descriptor.DeclarationName,
			Message:  fmt.Sprintf("decision failed (%v); kept %q", err, item.Descriptor.DeclaredPermission),
		}
	}

	switch decision.Kind {
	case DecisionAcceptSuggested:
		return accept(item.Descriptor, item.Descriptor.SuggestedPermission), nil
	case DecisionCustom:
		return accept(item.Descriptor, decision.Custom), nil
	default:
		return accept(item.Descriptor, item.Descriptor.DeclaredPermission), nil
	}
}

// accept finalizes a descriptor with the given declared permission.
func accept(d model.EndpointDescriptor, permission string) model.EndpointDescriptor {
	d.DeclaredPermission = permission
	d.AuthorizationState = model.StateAlreadyProtected
	return d
}
