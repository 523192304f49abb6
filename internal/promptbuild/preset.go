package promptbuild

// Preset is a YAML-defined set of default inputs for a named scenario.
// Request values always take precedence over preset values.
type Preset struct {
	Version     string `yaml:"version" json:"version"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Guidance              string         `yaml:"guidance,omitempty" json:"guidance,omitempty"`
	Instruction           string         `yaml:"instruction,omitempty" json:"instruction,omitempty"`
	Context               []string       `yaml:"context,omitempty" json:"context,omitempty"`
	RequestFields         map[string]any `yaml:"request_fields,omitempty" json:"request_fields,omitempty"`
	RequestResponseFormat string         `yaml:"request_response_format,omitempty" json:"request_response_format,omitempty"`
	ImageDetail           string         `yaml:"image_detail,omitempty" json:"image_detail,omitempty"`

	GuidanceFiles    []string `yaml:"guidance_files,omitempty" json:"guidance_files,omitempty"`
	InstructionFiles []string `yaml:"instruction_files,omitempty" json:"instruction_files,omitempty"`
}

func (p *Preset) hasContent() bool {
	return p.Guidance != "" || p.Instruction != "" || len(p.Context) > 0 ||
		len(p.RequestFields) > 0 || p.RequestResponseFormat != "" ||
		len(p.GuidanceFiles) > 0 || len(p.InstructionFiles) > 0
}

// apply fills the fields req left empty.
func (p *Preset) apply(req BuildRequest) BuildRequest {
	if req.Guidance == "" {
		req.Guidance = p.Guidance
	}
	if req.Instruction == "" {
		req.Instruction = p.Instruction
	}
	if len(req.Context) == 0 && len(p.Context) > 0 {
		req.Context = append([]string(nil), p.Context...)
	}
	if len(req.RequestFields) == 0 && len(p.RequestFields) > 0 {
		req.RequestFields = make(map[string]any, len(p.RequestFields))
		for k, v := range p.RequestFields {
			req.RequestFields[k] = v
		}
	}
	if req.RequestResponseFormat == "" {
		req.RequestResponseFormat = p.RequestResponseFormat
	}
	if req.ImageDetail == "" {
		req.ImageDetail = p.ImageDetail
	}
	if len(req.GuidanceFiles) == 0 {
		req.GuidanceFiles = p.GuidanceFiles
	}
	if len(req.InstructionFiles) == 0 {
		req.InstructionFiles = p.InstructionFiles
	}
	return req
}
