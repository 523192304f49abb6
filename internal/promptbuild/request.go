package promptbuild

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kayz/contentkit/internal/content"
	"github.com/kayz/contentkit/internal/logger"
)

// ParseRequest decodes a JSON or YAML request document. Unknown keys are
// logged and ignored.
func ParseRequest(data []byte) (BuildRequest, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return BuildRequest{}, fmt.Errorf("parse request: %w", err)
	}

	var req BuildRequest
	unused, err := content.DecodeNamed(raw, &req)
	if err != nil {
		return BuildRequest{}, fmt.Errorf("parse request: %w", err)
	}
	if len(unused) > 0 {
		logger.Warn("Ignoring unknown request keys: %s", strings.Join(unused, ", "))
	}
	return req, nil
}

// LoadRequest reads and decodes a request file.
func LoadRequest(path string) (BuildRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildRequest{}, fmt.Errorf("read request: %w", err)
	}
	return ParseRequest(data)
}
