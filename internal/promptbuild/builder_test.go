package promptbuild

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayz/contentkit/internal/config"
	"github.com/kayz/contentkit/internal/content"
	"github.com/kayz/contentkit/internal/security"
)

func configForTest(root string) config.PromptBuildConfig {
	return config.PromptBuildConfig{
		RootDir:            root,
		TemplatesDir:       "prompts",
		PresetsDir:         "prompts/presets",
		DefaultImageDetail: "auto",
		AuditEnabled:       false,
		AuditDir:           ".contentkit/audit",
		AuditRetentionDays: 7,
		AuditFilePrefix:    "contentkit",
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuildInlineInputs(t *testing.T) {
	b := NewBuilder(configForTest(t.TempDir()), nil)
	res, err := b.Build(BuildRequest{Inputs: content.Inputs{
		Instruction: "Summarize the text.",
		Context:     []string{"doc1", "doc2"},
	}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.ID == "" {
		t.Fatalf("expected result ID")
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	want := "## Instruction\nSummarize the text.\n\n## Context\n- doc1\n- doc2"
	if res.Items[0].Text != want {
		t.Fatalf("unexpected text:\n%s", res.Items[0].Text)
	}
	if strings.Join(res.Sections, ",") != "Instruction,Context" {
		t.Fatalf("unexpected sections: %v", res.Sections)
	}
}

func TestBuildResolvesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prompts", "guidance", "tone.md"), []byte("Be concise.\n"))
	writeFile(t, filepath.Join(dir, "prompts", "task", "goal.md"), []byte("Extract the answer."))
	writeFile(t, filepath.Join(dir, "refs", "evidence.md"), []byte("evidence content"))
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	writeFile(t, filepath.Join(dir, "img", "photo.jpg"), imageBytes)
	writeFile(t, filepath.Join(dir, "tools.yaml"), []byte("- name: search\n  description: Search the web\n"))

	b := NewBuilder(configForTest(dir), nil)
	res, err := b.Build(BuildRequest{
		Inputs: content.Inputs{
			Instruction: "Inline first.",
			Context:     []string{"inline context"},
			Images:      []string{"AAAA"},
			ImageDetail: "high",
		},
		GuidanceFiles:    []string{"guidance/tone.md"},
		InstructionFiles: []string{"task/goal.md", "task/missing.md"},
		ContextFiles:     []string{"refs/evidence.md", "refs/missing.md"},
		ImageFiles:       []string{"img/photo.jpg"},
		ToolsFile:        "tools.yaml",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	text := res.Items.Text()
	for _, want := range []string{
		"## Guidance\nBe concise.",
		"## Instruction\nInline first.\n\nExtract the answer.",
		"- inline context\n- [REFERENCE:refs/evidence.md]\nevidence content\n[/REFERENCE]",
		"## Tool Schemas\nname: search\ndescription: Search the web",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected text to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "missing") {
		t.Fatalf("missing files should be skipped:\n%s", text)
	}

	if res.Items.ImageCount() != 2 {
		t.Fatalf("expected 2 images, got %d", res.Items.ImageCount())
	}
	img := res.Items[2].ImageURL
	wantURL := content.ImageDataURLPrefix + base64.StdEncoding.EncodeToString(imageBytes)
	if img.URL != wantURL || img.Detail != "high" {
		t.Fatalf("unexpected image item: %#v", img)
	}
}

func TestBuildDefaultImageDetailFromConfig(t *testing.T) {
	cfg := configForTest(t.TempDir())
	cfg.DefaultImageDetail = "low"
	b := NewBuilder(cfg, nil)

	res, err := b.Build(BuildRequest{Inputs: content.Inputs{Images: []string{"AAAA"}}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ImageURL.Detail != "low" {
		t.Fatalf("expected config default detail low, got %#v", res.Items)
	}
}

func TestBuildDeniedPath(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.md"), []byte("secret"))

	b := NewBuilder(configForTest(dir), security.NewPathChecker([]string{dir}))
	_, err := b.Build(BuildRequest{ContextFiles: []string{filepath.Join(outside, "secret.md")}})
	var denied *security.AccessError
	if !errors.As(err, &denied) || denied.Kind != security.KindReference {
		t.Fatalf("expected reference access denied error, got %v", err)
	}

	_, err = b.Build(BuildRequest{PresetPath: filepath.Join(outside, "p.yaml")})
	if !errors.As(err, &denied) || denied.Kind != security.KindPreset {
		t.Fatalf("expected preset access denied error, got %v", err)
	}
}

func TestBuildWithPreset(t *testing.T) {
	dir := t.TempDir()
	preset := `version: v1
name: extract
guidance: Use only the provided context.
instruction: Answer the question.
request_fields:
  answer: the final answer
image_detail: high
`
	writeFile(t, filepath.Join(dir, "prompts", "presets", "extract.yaml"), []byte(preset))

	b := NewBuilder(configForTest(dir), nil)
	res, err := b.Build(BuildRequest{
		Inputs: content.Inputs{
			Instruction: "Answer from the request.",
			Images:      []string{"AAAA"},
		},
		Preset: "extract",
	})
	if err != nil {
		t.Fatalf("Build with preset failed: %v", err)
	}
	if res.Preset != "extract" {
		t.Fatalf("expected preset name on result, got %q", res.Preset)
	}

	text := res.Items.Text()
	if !strings.Contains(text, "## Guidance\nUse only the provided context.") {
		t.Fatalf("expected preset guidance, got:\n%s", text)
	}
	if !strings.Contains(text, "## Instruction\nAnswer from the request.") || strings.Contains(text, "Answer the question.") {
		t.Fatalf("expected request instruction to win over preset, got:\n%s", text)
	}
	if !strings.Contains(text, `"answer": "the final answer"`) {
		t.Fatalf("expected preset request fields, got:\n%s", text)
	}
	if res.Items[1].ImageURL.Detail != "high" {
		t.Fatalf("expected preset image detail, got %q", res.Items[1].ImageURL.Detail)
	}
}

func TestBuildPresetErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prompts", "presets", "empty.yaml"), []byte("name: empty\n"))
	b := NewBuilder(configForTest(dir), nil)

	tests := []struct {
		name string
		req  BuildRequest
	}{
		{"missing preset", BuildRequest{Preset: "nope"}},
		{"traversal", BuildRequest{Preset: "../etc"}},
		{"no content", BuildRequest{Preset: "empty"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.Build(tc.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidatePresetRequiredChecks(t *testing.T) {
	tests := []struct {
		name   string
		preset Preset
	}{
		{name: "missing name", preset: Preset{Instruction: "x"}},
		{name: "bad detail", preset: Preset{Name: "p", Instruction: "x", ImageDetail: "ultra"}},
		{name: "no content", preset: Preset{Name: "p"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := validatePreset(&tc.preset); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := validatePreset(&Preset{Name: "ok", Guidance: "g", ImageDetail: "low"}); err != nil {
		t.Fatalf("expected valid preset: %v", err)
	}
}

func TestParseRequestYAMLAndJSON(t *testing.T) {
	yamlReq := `
instruction: Summarize the text.
context:
  - doc1
  - doc2
images: AAAA
image_detail: high
context_files: [refs/a.md]
preset: extract
unknown_key: ignored
`
	req, err := ParseRequest([]byte(yamlReq))
	if err != nil {
		t.Fatalf("ParseRequest yaml: %v", err)
	}
	if req.Instruction != "Summarize the text." || len(req.Context) != 2 || req.Context[1] != "doc2" {
		t.Fatalf("unexpected inline inputs: %#v", req.Inputs)
	}
	if len(req.Images) != 1 || req.Images[0] != "AAAA" || req.ImageDetail != "high" {
		t.Fatalf("unexpected images: %#v", req.Inputs)
	}
	if req.Preset != "extract" || len(req.ContextFiles) != 1 {
		t.Fatalf("unexpected request fields: %#v", req)
	}

	jsonReq := `{"plain_content":"Hi","request_fields":{"answer":"string"}}`
	req, err = ParseRequest([]byte(jsonReq))
	if err != nil {
		t.Fatalf("ParseRequest json: %v", err)
	}
	if req.PlainContent != "Hi" || req.RequestFields["answer"] != "string" {
		t.Fatalf("unexpected json request: %#v", req)
	}

	if _, err := ParseRequest([]byte("instruction: [unclosed")); err == nil {
		t.Fatalf("expected parse error")
	}
}
