package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"

	"github.com/kayz/contentkit/internal/config"
	"github.com/kayz/contentkit/internal/content"
	"github.com/kayz/contentkit/internal/logger"
	"github.com/kayz/contentkit/internal/persist"
	"github.com/kayz/contentkit/internal/promptbuild"
)

const (
	formatRaw       = "raw"
	formatOpenAI    = "openai"
	formatAnthropic = "anthropic"
)

var (
	assembleRequestPath string
	assembleOutputPath  string
	assembleFormat      string
	assembleIndent      bool
	assembleRecord      bool
	assembleTokens      bool
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a content payload from a JSON or YAML request",
	RunE: func(cmd *cobra.Command, args []string) error {
		if assembleRequestPath == "" {
			return fmt.Errorf("--request is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		req, err := promptbuild.LoadRequest(assembleRequestPath)
		if err != nil {
			return err
		}

		res, err := newBuilder(cfg).Build(req)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := writePayload(&buf, res.Items, assembleFormat, assembleIndent); err != nil {
			return err
		}

		if assembleOutputPath == "" {
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
		} else {
			if err := os.WriteFile(assembleOutputPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Info("Wrote %d items to %s", len(res.Items), assembleOutputPath)
		}

		if assembleTokens {
			if n, err := countTokens(res.Items.Text()); err != nil {
				logger.Warn("Token count unavailable: %v", err)
			} else {
				logger.Info("Assembled text is %d tokens (cl100k_base)", n)
			}
		}

		if assembleRecord {
			if err := recordAssembly(cfg.PromptBuild, req, res); err != nil {
				logger.Warn("Record assembly failed: %v", err)
			}
		}

		return nil
	},
}

func init() {
	assembleCmd.Flags().StringVar(&assembleRequestPath, "request", "", "Path to JSON or YAML request file")
	assembleCmd.Flags().StringVar(&assembleOutputPath, "output", "", "Write output to file (default: stdout)")
	assembleCmd.Flags().StringVar(&assembleFormat, "format", formatRaw, "Output format: raw, openai, anthropic")
	assembleCmd.Flags().BoolVar(&assembleIndent, "indent", false, "Indent JSON output")
	assembleCmd.Flags().BoolVar(&assembleRecord, "record", false, "Record request and payload in the records database")
	assembleCmd.Flags().BoolVar(&assembleTokens, "tokens", false, "Log the token count of the assembled text")
	rootCmd.AddCommand(assembleCmd)
}

// writePayload writes items in the requested format followed by a newline.
func writePayload(w io.Writer, items content.Items, format string, indent bool) error {
	switch format {
	case "", formatRaw:
		return content.Encode(w, items, indent)
	case formatOpenAI:
		return writeJSON(w, content.ToOpenAIMessage(items), indent)
	case formatAnthropic:
		return writeJSON(w, content.ToAnthropicMessage(items), indent)
	default:
		return fmt.Errorf("unknown format %q (expected raw, openai or anthropic)", format)
	}
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// recordAssembly stores the request and payload of res in the records database.
func recordAssembly(cfg config.PromptBuildConfig, req promptbuild.BuildRequest, res *promptbuild.Result) error {
	store, err := persist.NewStore(recordsPath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	payload, err := res.Items.JSON()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	return store.SaveAssembly(&persist.Assembly{
		ID:          res.ID,
		Preset:      res.Preset,
		RequestJSON: string(reqJSON),
		PayloadJSON: string(payload),
		ItemCount:   len(res.Items),
	})
}

// recordsPath resolves the records database relative to the root directory.
func recordsPath(cfg config.PromptBuildConfig) string {
	p := cfg.RecordsPath
	if p == "" {
		p = ".contentkit/records.db"
	}
	if filepath.IsAbs(p) {
		return p
	}
	root := cfg.RootDir
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}
