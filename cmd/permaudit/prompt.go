package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/permaudit/permaudit/internal/reconcile"
)

// promptProvider asks the user on the terminal how to resolve each
// mismatched permission. It implements reconcile.DecisionProvider.
type promptProvider struct {
	// in reads user answers, one per line.
	in *bufio.Reader

	// out receives the prompts. Prompts go to stderr so report output
	// on stdout stays machine-readable.
	out io.Writer
}

// newPromptProvider creates a terminal decision provider.
func newPromptProvider(in io.Reader, out io.Writer) *promptProvider {
	return &promptProvider{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Decide prompts for one mismatched endpoint and parses the answer.
// An empty answer accepts the suggestion, matching the common case of
// pressing enter through a list of mismatches.
func (p *promptProvider) Decide(ctx context.Context, item reconcile.Item) (reconcile.Decision, error) {
	select {
	case <-ctx.Done():
		return reconcile.Decision{}, ctx.Err()
	default:
	}

	d := item.Descriptor
	fmt.Fprintf(p.out, "\nPermission mismatch in %s: %s (%s %s)\n",
		item.Project, d.DeclarationName, d.HTTPVerb, d.Route)
	fmt.Fprintf(p.out, "  declared:  %s\n", d.DeclaredPermission)
	fmt.Fprintf(p.out, "  suggested: %s\n", d.SuggestedPermission)

	for {
		fmt.Fprintf(p.out, "Accept suggestion? [Y = accept / k = keep declared / c = custom]: ")

		answer, err := p.readLine()
		if err != nil {
			return reconcile.Decision{}, err
		}

		switch strings.ToLower(answer) {
		case "", "y", "yes", "a", "accept":
			return reconcile.Decision{Kind: reconcile.DecisionAcceptSuggested}, nil
		case "k", "keep", "n", "no":
			return reconcile.Decision{Kind: reconcile.DecisionKeepCurrent}, nil
		case "c", "custom":
			return p.readCustom()
		default:
			fmt.Fprintf(p.out, "Unrecognized answer %q\n", answer)
		}
	}
}

// readCustom asks for a custom permission name. An empty name falls
// back to keeping the declared permission.
func (p *promptProvider) readCustom() (reconcile.Decision, error) {
	fmt.Fprintf(p.out, "Permission name: ")

	name, err := p.readLine()
	if err != nil {
		return reconcile.Decision{}, err
	}
	if name == "" {
		return reconcile.Decision{Kind: reconcile.DecisionKeepCurrent}, nil
	}

	return reconcile.Decision{
		Kind:   reconcile.DecisionCustom,
		Custom: name,
	}, nil
}

// readLine reads one trimmed answer line. EOF on a non-empty final line
// is treated as a complete answer so piped input works.
func (p *promptProvider) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
