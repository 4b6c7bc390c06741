package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MaskedHome is the replacement for the user's home directory in log
// output.
const MaskedHome = "~"

// SanitizeHandler wraps an slog.Handler to rewrite filesystem paths in
// attribute values. Scan logs quote absolute paths constantly; when a
// log is pasted into an issue or CI output those paths leak usernames
// and machine layout. The handler rewrites paths under the scan root
// to root-relative form and masks the home directory elsewhere.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Sanitization happens in one place instead of at every call site
type SanitizeHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler

	// root is the scan root; paths below it are rewritten relative to it.
	root string

	// home is the user's home directory, masked when it prefixes a value.
	home string
}

// SanitizeHandlerOption configures a SanitizeHandler.
type SanitizeHandlerOption func(*SanitizeHandler)

// WithScanRoot sets the scan root for relative path rewriting.
func WithScanRoot(root string) SanitizeHandlerOption {
	return func(h *SanitizeHandler) {
		h.root = filepath.Clean(root)
	}
}

// NewSanitizeHandler creates a new SanitizeHandler wrapping the given
// handler. String attribute values that look like paths are rewritten
// before being passed on. If handler is nil, the returned
// SanitizeHandler uses slog.Default().Handler().
func NewSanitizeHandler(handler slog.Handler, opts ...SanitizeHandlerOption) *SanitizeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}

	h := &SanitizeHandler{handler: handler}
	if home, err := os.UserHomeDir(); err == nil {
		h.home = home
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *SanitizeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SanitizeHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SanitizeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SanitizeHandler{
		handler: h.handler.WithAttrs(sanitizedAttrs),
		root:    h.root,
		home:    h.home,
	}
}

// WithGroup returns a new handler with the given group name.
func (h *SanitizeHandler) WithGroup(name string) slog.Handler {
	return &SanitizeHandler{
		handler: h.handler.WithGroup(name),
		root:    h.root,
		home:    h.home,
	}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SanitizeHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.sanitizePath(a.Value.String()))
	}

	return a
}

// sanitizePath rewrites one value. Paths under the scan root become
// root-relative; paths under the home directory get the home prefix
// masked. Values that are not absolute paths pass through unchanged.
func (h *SanitizeHandler) sanitizePath(value string) string {
	if !filepath.IsAbs(value) {
		return value
	}

	if h.root != "" {
		if rel, err := filepath.Rel(h.root, value); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	if h.home != "" && strings.HasPrefix(value, h.home) {
		return MaskedHome + filepath.ToSlash(strings.TrimPrefix(value, h.home))
	}

	return value
}

// NewLogger creates a new slog.Logger with path sanitization.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//   - opts: Sanitizer options such as WithScanRoot
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or
// passed to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool, opts ...SanitizeHandlerOption) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSanitizeHandler(textHandler, opts...))
}

// NewJSONLogger creates a new slog.Logger with path sanitization that
// outputs JSON format. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool, opts ...SanitizeHandlerOption) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSanitizeHandler(jsonHandler, opts...))
}
