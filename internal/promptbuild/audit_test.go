package promptbuild

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kayz/contentkit/internal/content"
)

func TestBuildWritesAuditRecordsSameDay(t *testing.T) {
	dir := t.TempDir()
	cfg := configForTest(dir)
	cfg.AuditEnabled = true
	cfg.AuditDir = "audit"
	b := NewBuilder(cfg, nil)

	req := BuildRequest{Inputs: content.Inputs{Instruction: "first", Images: []string{"AAAA"}}}
	first, err := b.Build(req)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(req); err != nil {
		t.Fatalf("second build: %v", err)
	}

	auditFile := filepath.Join(dir, "audit", "contentkit-"+time.Now().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(auditFile)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(lines))
	}

	var rec auditRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if rec.Timestamp == "" || rec.RequestDigest == "" {
		t.Fatalf("expected timestamp and request_digest to be set")
	}
	if rec.ID != first.ID {
		t.Fatalf("expected audit id %q, got %q", first.ID, rec.ID)
	}
	if rec.Text != "## Instruction\nfirst" || rec.ItemCount != 2 || rec.ImageCount != 1 {
		t.Fatalf("unexpected audit record: %#v", rec)
	}
	if len(rec.Sections) != 1 || rec.Sections[0] != "Instruction" {
		t.Fatalf("unexpected sections: %v", rec.Sections)
	}
}

func TestAuditDisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(configForTest(dir), nil)
	if _, err := b.Build(BuildRequest{Inputs: content.Inputs{Guidance: "g"}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".contentkit", "audit")); !os.IsNotExist(err) {
		t.Fatalf("expected no audit dir when auditing is disabled")
	}
}

func TestRequestDigestIgnoresContent(t *testing.T) {
	a := buildRequestDigest(BuildRequest{Inputs: content.Inputs{Instruction: "abc"}})
	b := buildRequestDigest(BuildRequest{Inputs: content.Inputs{Instruction: "xyz"}})
	c := buildRequestDigest(BuildRequest{Inputs: content.Inputs{Instruction: "abcd"}})
	if a != b {
		t.Fatalf("expected same-shape requests to share a digest")
	}
	if a == c {
		t.Fatalf("expected different-shape requests to differ")
	}
}

func TestCleanupOldAuditFilesByDateAndModTime(t *testing.T) {
	dir := t.TempDir()
	auditDir := filepath.Join(dir, "audit")
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		t.Fatalf("mkdir audit dir: %v", err)
	}

	now := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	prefix := "contentkit"

	oldByName := filepath.Join(auditDir, prefix+"-2026-02-18.jsonl")
	if err := os.WriteFile(oldByName, []byte("old"), 0644); err != nil {
		t.Fatalf("write old-by-name file: %v", err)
	}

	newByName := filepath.Join(auditDir, prefix+"-2026-02-26.jsonl")
	if err := os.WriteFile(newByName, []byte("new"), 0644); err != nil {
		t.Fatalf("write new-by-name file: %v", err)
	}

	fallbackOld := filepath.Join(auditDir, prefix+"-not-a-date.jsonl")
	if err := os.WriteFile(fallbackOld, []byte("fallback"), 0644); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}
	oldModTime := now.AddDate(0, 0, -10)
	if err := os.Chtimes(fallbackOld, oldModTime, oldModTime); err != nil {
		t.Fatalf("set fallback old modtime: %v", err)
	}

	unrelated := filepath.Join(auditDir, "other-2020-01-01.jsonl")
	if err := os.WriteFile(unrelated, []byte("keep"), 0644); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}

	cfg := configForTest(dir)
	cfg.AuditEnabled = true
	cfg.AuditDir = "audit"
	cfg.AuditFilePrefix = prefix
	b := NewBuilder(cfg, nil)

	if err := b.cleanupOldAuditFilesWithNow(now); err != nil {
		t.Fatalf("cleanup old audit files: %v", err)
	}

	if _, err := os.Stat(oldByName); !os.IsNotExist(err) {
		t.Fatalf("expected old-by-name file removed")
	}
	if _, err := os.Stat(newByName); err != nil {
		t.Fatalf("expected new-by-name file kept: %v", err)
	}
	if _, err := os.Stat(fallbackOld); !os.IsNotExist(err) {
		t.Fatalf("expected fallback old-modtime file removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected unrelated file kept: %v", err)
	}
}
