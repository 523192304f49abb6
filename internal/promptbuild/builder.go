package promptbuild

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kayz/contentkit/internal/config"
	"github.com/kayz/contentkit/internal/content"
	"github.com/kayz/contentkit/internal/logger"
	"github.com/kayz/contentkit/internal/security"
	"github.com/kayz/contentkit/internal/toolschema"
)

// Builder assembles payloads from inline inputs, presets, templates,
// reference files and images on disk.
type Builder struct {
	cfg       config.PromptBuildConfig
	paths     *security.PathChecker
	assembler *content.Assembler
}

// NewBuilder creates a new Builder from config. A nil checker allows reading
// any path.
func NewBuilder(cfg config.PromptBuildConfig, paths *security.PathChecker) *Builder {
	b := &Builder{
		cfg:       cfg,
		paths:     paths,
		assembler: content.New(content.WithSchemaRenderer(toolschema.YAMLRenderer{})),
	}
	b.applyDefaults()
	return b
}

// Build resolves req and assembles its payload.
func (b *Builder) Build(req BuildRequest) (*Result, error) {
	preset, err := b.loadPreset(req)
	if err != nil {
		return nil, err
	}
	if preset != nil {
		req = preset.apply(req)
	}

	in, err := b.resolveInputs(req)
	if err != nil {
		return nil, err
	}

	items, err := b.assembler.Assemble(in)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	res := &Result{
		ID:       uuid.NewString(),
		Items:    items,
		Sections: content.Sections(in),
	}
	if preset != nil {
		res.Preset = preset.Name
	}

	if err := b.writeAuditRecord(req, res); err != nil {
		logger.Warn("Write promptbuild audit record failed: %v", err)
	}
	return res, nil
}

func (b *Builder) resolveInputs(req BuildRequest) (content.Inputs, error) {
	in := req.Inputs

	guidance, err := b.readTemplateGroup(req.GuidanceFiles)
	if err != nil {
		return content.Inputs{}, err
	}
	in.Guidance = joinNonEmpty(in.Guidance, guidance)

	instruction, err := b.readTemplateGroup(req.InstructionFiles)
	if err != nil {
		return content.Inputs{}, err
	}
	in.Instruction = joinNonEmpty(in.Instruction, instruction)

	refs, err := b.readReferences(req.ContextFiles)
	if err != nil {
		return content.Inputs{}, err
	}
	if len(refs) > 0 {
		in.Context = append(append([]string(nil), in.Context...), refs...)
	}

	images, err := b.readImages(req.ImageFiles)
	if err != nil {
		return content.Inputs{}, err
	}
	if len(images) > 0 {
		in.Images = append(append([]string(nil), in.Images...), images...)
	}

	if strings.TrimSpace(req.ToolsFile) != "" {
		tools, err := b.readTools(req.ToolsFile)
		if err != nil {
			return content.Inputs{}, err
		}
		in.ToolSchemas = append(append([]mcp.Tool(nil), in.ToolSchemas...), tools...)
	}

	if in.ImageDetail == "" {
		in.ImageDetail = b.cfg.DefaultImageDetail
	}
	if !isValidImageDetail(in.ImageDetail) {
		logger.Warn("Unknown image detail %q, passing through", in.ImageDetail)
	}
	return in, nil
}

func (b *Builder) applyDefaults() {
	if b.cfg.RootDir == "" {
		b.cfg.RootDir = "."
	}
	if b.cfg.TemplatesDir == "" {
		b.cfg.TemplatesDir = "prompts"
	}
	if b.cfg.PresetsDir == "" {
		b.cfg.PresetsDir = filepath.Join("prompts", "presets")
	}
	if b.cfg.DefaultImageDetail == "" {
		b.cfg.DefaultImageDetail = content.DetailAuto
	}
}

// readFile reads a path after the access check. A missing file yields
// ok=false and is logged; a denied path is an error.
func (b *Builder) readFile(fullPath string, kind security.Kind) ([]byte, bool, error) {
	if err := b.paths.Check(kind, fullPath); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		logger.Warn("%s file not found, skipping: %s", kind, fullPath)
		return nil, false, nil
	}
	return data, true, nil
}

func (b *Builder) readTemplateGroup(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	var parts []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, ok, err := b.readFile(b.resolveTemplatePath(p), security.KindTemplate)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (b *Builder) readReferences(paths []string) ([]string, error) {
	var entries []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, ok, err := b.readFile(b.resolvePath(p), security.KindReference)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, fmt.Sprintf("[REFERENCE:%s]\n%s\n[/REFERENCE]", p, strings.TrimSpace(string(data))))
	}
	return entries, nil
}

func (b *Builder) readImages(paths []string) ([]string, error) {
	var images []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, ok, err := b.readFile(b.resolvePath(p), security.KindImage)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}
	return images, nil
}

func (b *Builder) readTools(path string) ([]mcp.Tool, error) {
	data, ok, err := b.readFile(b.resolvePath(path), security.KindTools)
	if err != nil || !ok {
		return nil, err
	}
	tools, err := toolschema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tools file %s: %w", path, err)
	}
	return tools, nil
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func (b *Builder) resolveTemplatePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.cfg.RootDir, b.cfg.TemplatesDir, p)
}

func (b *Builder) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.cfg.RootDir, p)
}
