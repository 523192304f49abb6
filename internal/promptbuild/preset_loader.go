package promptbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kayz/contentkit/internal/content"
	"github.com/kayz/contentkit/internal/security"
)

func (b *Builder) loadPreset(req BuildRequest) (*Preset, error) {
	presetPath := strings.TrimSpace(req.PresetPath)
	if presetPath == "" {
		name := strings.TrimSpace(req.Preset)
		if name == "" {
			return nil, nil
		}
		if strings.ContainsAny(name, `/\`) || name == ".." {
			return nil, fmt.Errorf("invalid preset name %q", name)
		}
		presetPath = filepath.Join(b.cfg.PresetsDir, name+".yaml")
	}

	fullPath := b.resolvePath(presetPath)
	if err := b.paths.Check(security.KindPreset, fullPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read preset file %s: %w", fullPath, err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", fullPath, err)
	}
	if err := validatePreset(&preset); err != nil {
		return nil, fmt.Errorf("invalid preset file %s: %w", fullPath, err)
	}
	return &preset, nil
}

func validatePreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("preset is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !isValidImageDetail(p.ImageDetail) {
		return fmt.Errorf("unsupported image_detail: %s", p.ImageDetail)
	}
	if !p.hasContent() {
		return fmt.Errorf("preset %s defines no content", p.Name)
	}
	return nil
}

func isValidImageDetail(detail string) bool {
	switch strings.TrimSpace(detail) {
	case "", content.DetailAuto, content.DetailLow, content.DetailHigh:
		return true
	default:
		return false
	}
}
