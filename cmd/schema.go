package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/kayz/contentkit/internal/promptbuild"
	"github.com/kayz/contentkit/internal/toolschema"
)

var (
	schemaCompact bool
	schemaTool    bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of assemble request files",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if schemaTool {
			data, err = requestTool(schemaCompact)
		} else {
			data, err = requestSchema(schemaCompact)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVarP(&schemaCompact, "compact", "c", false, "Compact JSON output (no indentation)")
	schemaCmd.Flags().BoolVar(&schemaTool, "tool", false, "Print an MCP tool definition for assemble instead of the bare schema")
	rootCmd.AddCommand(schemaCmd)
}

func requestSchema(compact bool) ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&promptbuild.BuildRequest{})
	schema.Title = "contentkit assemble request"
	schema.Description = "Inline content inputs plus template, reference, image, tool and preset files."

	if compact {
		return json.Marshal(schema)
	}
	return json.MarshalIndent(schema, "", "  ")
}

// requestTool describes assemble as an MCP tool whose input is a request.
func requestTool(compact bool) ([]byte, error) {
	tool, err := toolschema.FromStruct("assemble", "Assemble a chat content payload from prompts, context and images.", &promptbuild.BuildRequest{})
	if err != nil {
		return nil, err
	}
	if compact {
		return json.Marshal(tool)
	}
	return json.MarshalIndent(tool, "", "  ")
}
