package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Project is one source project found under the scan root.
type Project struct {
	// Name is the project file name without its extension.
	Name string

	// Path is the project root directory (the directory containing the
	// project file).
	Path string

	// SourceFiles are the absolute paths of the project's source
	// files, sorted for deterministic scan order.
	SourceFiles []string
}

// Locator errors.
var (
	// ErrRootNotFound is returned when the scan root does not exist or
	// is not a directory. This is a fatal, scan-level condition.
	ErrRootNotFound = errors.New("scan root not found or not a directory")
)

// Directories never descended into during project enumeration.
// Build output trees contain generated copies of source files that
// would produce duplicate endpoints.
var skipDirs = map[string]bool{
	"obj":          true,
	"bin":          true,
	".git":         true,
	"node_modules": true,
}

// SkipDir reports whether a directory name is excluded from traversal.
// Watch mode uses the same exclusions so build output churn does not
// trigger rescans.
func SkipDir(name string) bool {
	return skipDirs[name]
}

// Locator enumerates projects under a scan root. It is pure
// file-system traversal; no parsing happens here.
type Locator struct {
	// projectFileExt identifies project files, ".csproj" by default.
	projectFileExt string

	// sourceFileExt identifies source files, ".cs" by default.
	sourceFileExt string
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithProjectFileExt overrides the project file extension.
func WithProjectFileExt(ext string) LocatorOption {
	return func(l *Locator) {
		l.projectFileExt = ext
	}
}

// WithSourceFileExt overrides the source file extension.
func WithSourceFileExt(ext string) LocatorOption {
	return func(l *Locator) {
		l.sourceFileExt = ext
	}
}

// NewLocator creates a Locator with the given options.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		projectFileExt: ".csproj",
		sourceFileExt:  ".cs",
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// ListProjects returns every project under root, in path order.
// A missing or non-directory root returns ErrRootNotFound before any
// traversal. Zero projects is not an error; callers record it as a
// warning.
func (l *Locator) ListProjects(root string) ([]Project, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, ErrRootNotFound
	}

	var projectFiles []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), l.projectFileExt) {
			projectFiles = append(projectFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(projectFiles)

	projects := make([]Project, 0, len(projectFiles))
	for _, pf := range projectFiles {
		dir := filepath.Dir(pf)
		name := strings.TrimSuffix(filepath.Base(pf), filepath.Ext(pf))

		files, err := l.listSourceFiles(dir)
		if err != nil {
			// An unreadable project directory yields an empty project
			// rather than aborting enumeration.
			files = nil
		}

		projects = append(projects, Project{
			Name:        name,
			Path:        dir,
			SourceFiles: files,
		})
	}

	return projects, nil
}

// listSourceFiles collects the source files under a project directory.
func (l *Locator) listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), l.sourceFileExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RelativeLocation computes the forward-slash path of file relative to
// the project root. On resolution failure it falls back to the bare
// file name rather than erroring.
func RelativeLocation(projectPath, file string) string {
	rel, err := filepath.Rel(projectPath, file)
	if err != nil {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
