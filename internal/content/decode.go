package content

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// DecodeNamed decodes values into out by mapstructure tag. Embedded structs
// are squashed, so a request type embedding Inputs decodes flat keys.
// Scalars are weakly converted: a number in context becomes a string and a
// single image payload becomes a one-element list.
func DecodeNamed(values map[string]any, out any) ([]string, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	sort.Strings(md.Unused)
	return md.Unused, nil
}
