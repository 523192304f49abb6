package promptbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var auditMu sync.Mutex

type auditRecord struct {
	Timestamp     string   `json:"timestamp"`
	ID            string   `json:"id"`
	RequestDigest string   `json:"request_digest"`
	Preset        string   `json:"preset,omitempty"`
	Text          string   `json:"text"`
	Sections      []string `json:"sections"`
	ItemCount     int      `json:"item_count"`
	ImageCount    int      `json:"image_count"`
}

func (b *Builder) writeAuditRecord(req BuildRequest, res *Result) error {
	if !b.cfg.AuditEnabled {
		return nil
	}
	return b.writeAuditRecordAt(req, res, time.Now())
}

func (b *Builder) writeAuditRecordAt(req BuildRequest, res *Result, now time.Time) error {
	auditDir := b.resolvePath(b.cfg.AuditDir)
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	prefix := b.auditPrefix()
	fileName := fmt.Sprintf("%s-%s.jsonl", prefix, now.Format("2006-01-02"))
	filePath := filepath.Join(auditDir, fileName)

	sections := res.Sections
	if sections == nil {
		sections = []string{}
	}
	record := auditRecord{
		Timestamp:     now.Format(time.RFC3339),
		ID:            res.ID,
		RequestDigest: buildRequestDigest(req),
		Preset:        res.Preset,
		Text:          res.Items.Text(),
		Sections:      sections,
		ItemCount:     len(res.Items),
		ImageCount:    res.Items.ImageCount(),
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if err := appendJSONL(filePath, line); err != nil {
		return err
	}

	if err := b.cleanupOldAuditFilesWithNow(now); err != nil {
		return err
	}

	return nil
}

func appendJSONL(filePath string, line []byte) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// CleanupOldAuditFiles removes audit files past the retention window.
func (b *Builder) CleanupOldAuditFiles() error {
	auditMu.Lock()
	defer auditMu.Unlock()
	return b.cleanupOldAuditFilesWithNow(time.Now())
}

func (b *Builder) auditPrefix() string {
	prefix := strings.TrimSpace(b.cfg.AuditFilePrefix)
	if prefix == "" {
		prefix = "contentkit"
	}
	return prefix
}

func (b *Builder) cleanupOldAuditFilesWithNow(now time.Time) error {
	if !b.cfg.AuditEnabled || b.cfg.AuditRetentionDays <= 0 {
		return nil
	}

	auditDir := b.resolvePath(b.cfg.AuditDir)
	entries, err := os.ReadDir(auditDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list audit dir: %w", err)
	}

	prefix := b.auditPrefix()
	cutoff := now.AddDate(0, 0, -b.cfg.AuditRetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		filePath := filepath.Join(auditDir, name)
		fileDate, ok := parseAuditDate(name, prefix)
		if ok {
			if fileDate.Before(startOfDay(cutoff)) {
				if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove old audit file %s: %w", filePath, err)
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat audit file %s: %w", filePath, err)
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove old audit file %s: %w", filePath, err)
			}
		}
	}

	return nil
}

func parseAuditDate(filename, prefix string) (time.Time, bool) {
	raw := strings.TrimSuffix(filename, ".jsonl")
	raw = strings.TrimPrefix(raw, prefix+"-")
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// buildRequestDigest hashes the shape of a request, not its content.
func buildRequestDigest(req BuildRequest) string {
	digestInput := struct {
		Preset         string `json:"preset,omitempty"`
		PresetPath     string `json:"preset_path,omitempty"`
		PlainLen       int    `json:"plain_content_len"`
		GuidanceLen    int    `json:"guidance_len"`
		InstructionLen int    `json:"instruction_len"`
		ContextCount   int    `json:"context_count"`
		ToolCount      int    `json:"tool_count"`
		FieldCount     int    `json:"request_field_count"`
		FormatLen      int    `json:"response_format_len"`
		ImageCount     int    `json:"image_count"`
		ImageDetail    string `json:"image_detail,omitempty"`
		TemplateCount  int    `json:"template_count"`
		ReferenceCount int    `json:"reference_count"`
		ImageFileCount int    `json:"image_file_count"`
		HasToolsFile   bool   `json:"has_tools_file"`
	}{
		Preset:         strings.TrimSpace(req.Preset),
		PresetPath:     strings.TrimSpace(req.PresetPath),
		PlainLen:       len(req.PlainContent),
		GuidanceLen:    len(strings.TrimSpace(req.Guidance)),
		InstructionLen: len(strings.TrimSpace(req.Instruction)),
		ContextCount:   len(req.Context),
		ToolCount:      len(req.ToolSchemas),
		FieldCount:     len(req.RequestFields),
		FormatLen:      len(strings.TrimSpace(req.RequestResponseFormat)),
		ImageCount:     len(req.Images),
		ImageDetail:    req.ImageDetail,
		TemplateCount:  len(req.GuidanceFiles) + len(req.InstructionFiles),
		ReferenceCount: len(req.ContextFiles),
		ImageFileCount: len(req.ImageFiles),
		HasToolsFile:   strings.TrimSpace(req.ToolsFile) != "",
	}
	payload, _ := json.Marshal(digestInput)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
