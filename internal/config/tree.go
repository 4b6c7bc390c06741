package config

// TreeConfig holds per-root configuration for a single source tree.
// This allows customizing scan behavior for each repository a user
// audits regularly.
type TreeConfig struct {
	// Policy overrides the reconciliation policy for this tree.
	// One of "auto", "interactive", or "skip".
	Policy string `yaml:"policy,omitempty"`

	// Concurrency overrides the extraction concurrency for this tree.
	// If zero, the global value is used.
	Concurrency int `yaml:"concurrency,omitempty"`

	// ProjectFileExt overrides the project file extension, ".csproj"
	// by default.
	ProjectFileExt string `yaml:"projectFileExt,omitempty"`

	// SourceFileExt overrides the source file extension, ".cs" by
	// default.
	SourceFileExt string `yaml:"sourceFileExt,omitempty"`

	// Save overrides whether scans of this tree are persisted to the
	// history database.
	Save *bool `yaml:"save,omitempty"`
}

// File represents the structure of the .permaudit configuration file.
type File struct {
	// Trees maps scan roots to their tree-specific configurations.
	// Keys should be the root path as passed on the command line.
	Trees map[string]TreeConfig `yaml:"trees,omitempty"`

	// Defaults contains default tree configuration applied to all
	// trees unless overridden in the tree-specific configuration.
	Defaults TreeConfig `yaml:"defaults,omitempty"`
}

// GetTreeConfig returns the configuration for a specific scan root.
// It merges the tree-specific configuration with defaults.
func (cf *File) GetTreeConfig(root string) TreeConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with tree-specific configuration if present
	if treeConfig, ok := cf.Trees[root]; ok {
		if treeConfig.Policy != "" {
			result.Policy = treeConfig.Policy
		}
		if treeConfig.Concurrency != 0 {
			result.Concurrency = treeConfig.Concurrency
		}
		if treeConfig.ProjectFileExt != "" {
			result.ProjectFileExt = treeConfig.ProjectFileExt
		}
		if treeConfig.SourceFileExt != "" {
			result.SourceFileExt = treeConfig.SourceFileExt
		}
		if treeConfig.Save != nil {
			result.Save = treeConfig.Save
		}
	}

	return result
}
