package promptbuild

import (
	"github.com/kayz/contentkit/internal/content"
)

// BuildRequest defines inputs for payload assembly: the inline content inputs
// plus files and a preset that contribute to them.
type BuildRequest struct {
	content.Inputs `mapstructure:",squash" yaml:",inline"`

	// GuidanceFiles and InstructionFiles are template paths relative to the
	// templates dir. Their contents are appended after the inline value.
	GuidanceFiles    []string `json:"guidance_files,omitempty" yaml:"guidance_files,omitempty" mapstructure:"guidance_files"`
	InstructionFiles []string `json:"instruction_files,omitempty" yaml:"instruction_files,omitempty" mapstructure:"instruction_files"`

	// ContextFiles are reference files; each becomes one context entry.
	ContextFiles []string `json:"context_files,omitempty" yaml:"context_files,omitempty" mapstructure:"context_files"`

	// ImageFiles are read and base64-encoded into images.
	ImageFiles []string `json:"image_files,omitempty" yaml:"image_files,omitempty" mapstructure:"image_files"`

	// ToolsFile is a JSON or YAML list of tool definitions.
	ToolsFile string `json:"tools_file,omitempty" yaml:"tools_file,omitempty" mapstructure:"tools_file"`

	// Preset selects a named preset under the presets dir.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" mapstructure:"preset"`
	// PresetPath explicitly sets the preset file path.
	PresetPath string `json:"preset_path,omitempty" yaml:"preset_path,omitempty" mapstructure:"preset_path"`
}

// Result is one assembled payload.
type Result struct {
	ID       string
	Items    content.Items
	Sections []string
	Preset   string
}
