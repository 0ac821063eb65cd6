// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
)

// ExportFormat names a download format for saved scripts.
type ExportFormat string

const (
	ExportText     ExportFormat = "txt"
	ExportMarkdown ExportFormat = "md"
	ExportDocx     ExportFormat = "docx"
	ExportJSON     ExportFormat = "json"
)

const (
	docxFont     = "Meiryo"
	docxFontSize = 11
)

var (
	reSectionHeading = regexp.MustCompile(`^【(.+?)】(.*)$`)
	reUnsafeFilename = regexp.MustCompile(`[\\/:*?"<>|\s]+`)
)

// ExportedFile is a rendered download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders saved scripts for download.
type ExportService struct {
	scripts *ScriptLibraryService
	tempDir string
}

// NewExportService creates an ExportService. docx files are staged under tempDir
// (os.TempDir when empty).
func NewExportService(scripts *ScriptLibraryService, tempDir string) *ExportService {
	return &ExportService{scripts: scripts, tempDir: tempDir}
}

// ExportScript renders the saved script id in format.
func (s *ExportService) ExportScript(id string, format ExportFormat) (*ExportedFile, error) {
	script, err := s.scripts.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Render(script, format)
}

// Render formats script without looking it up.
func (s *ExportService) Render(script *models.SavedScript, format ExportFormat) (*ExportedFile, error) {
	base := exportBaseName(script)

	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportText, "":
		return &ExportedFile{
			Filename:    base + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(script.ScriptText),
		}, nil
	case ExportMarkdown:
		return &ExportedFile{
			Filename:    base + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(formatAsMarkdown(script.ScriptText)),
		}, nil
	case ExportJSON:
		data, err := json.MarshalIndent(script, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode script: %w", err)
		}
		return &ExportedFile{
			Filename:    base + ".json",
			ContentType: "application/json",
			Data:        data,
		}, nil
	case ExportDocx:
		data, err := s.renderDocx(script)
		if err != nil {
			return nil, err
		}
		return &ExportedFile{
			Filename:    base + ".docx",
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Data:        data,
		}, nil
	default:
		return nil, errors.NewValidationError(
			fmt.Sprintf("対応していない形式です: %s（txt, md, docx, json）", format), nil)
	}
}

func exportBaseName(script *models.SavedScript) string {
	name := reUnsafeFilename.ReplaceAllString(strings.TrimSpace(script.Title), "_")
	if name == "" {
		name = "script"
	}
	if !script.CreatedAt.IsZero() {
		name += "_" + script.CreatedAt.Format("20060102")
	}
	return name
}

// formatAsMarkdown maps the script layout onto Markdown headings and lists.
func formatAsMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case reSectionHeading.MatchString(line):
			m := reSectionHeading.FindStringSubmatch(line)
			if m[2] != "" {
				out = append(out, "# "+m[2])
			} else {
				out = append(out, "## "+m[1])
			}
		case strings.HasPrefix(line, "■ "):
			out = append(out, "### "+strings.TrimPrefix(line, "■ "))
		case strings.HasPrefix(line, "・"):
			out = append(out, "- "+strings.TrimPrefix(line, "・"))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func (s *ExportService) renderDocx(script *models.SavedScript) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create docx: %w", err)
	}

	for _, line := range strings.Split(script.ScriptText, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			doc.AddParagraph("")
		case reSectionHeading.MatchString(trimmed):
			m := reSectionHeading.FindStringSubmatch(trimmed)
			if m[2] != "" {
				addDocxRun(doc.AddParagraph(""), m[2], true, 16)
			} else {
				addDocxRun(doc.AddParagraph(""), m[1], true, 14)
			}
		case strings.HasPrefix(trimmed, "■ "):
			addDocxRun(doc.AddParagraph(""), strings.TrimPrefix(trimmed, "■ "), true, 12)
		default:
			addDocxRun(doc.AddParagraph(""), trimmed, false, docxFontSize)
		}
	}

	dir := s.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmp, err := os.CreateTemp(dir, "script-*.docx")
	if err != nil {
		return nil, fmt.Errorf("stage docx: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	if err := doc.SaveTo(filepath.Clean(path)); err != nil {
		return nil, fmt.Errorf("save docx: %w", err)
	}
	return os.ReadFile(path)
}

func addDocxRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(docxFont).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
