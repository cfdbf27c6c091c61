// Package docparse extracts plain text from uploaded brand documents
// (PDF, DOCX, XLSX) so they can be indexed into the Document DB for
// retrieval by the queryBrandDocuments tool (spec §4.4's "retrieval
// over indexed documents").
//
// Grounded on the teacher's pkg/rag/native_parsers.go
// (NativeParserRegistry's CanParse/Parse-per-extension dispatch over
// ledongthuc/pdf, nguyenthenguyen/docx, and xuri/excelize/v2),
// narrowed to operate on in-memory bytes fetched from an
// capability.ObjectStorePort rather than a local filesystem path.
package docparse

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// Result is the extracted text plus a small metadata set, mirroring
// the teacher's NativeParseResult shape narrowed to what
// queryBrandDocuments actually surfaces.
type Result struct {
	Content  string
	Title    string
	Metadata map[string]string
}

// Parse dispatches on filename's extension (.pdf, .docx, .xlsx) and
// extracts text from content. An unsupported extension is returned as
// a validation error, not a panic, since the caller is a tool
// handler driven by LLM-supplied arguments.
func Parse(ctx context.Context, filename string, content []byte) (Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return parsePDF(filename, content)
	case ".docx":
		return parseDocx(filename, content)
	case ".xlsx":
		return parseExcel(ctx, filename, content)
	default:
		return Result{}, apperr.New(apperr.KindValidation, "docparse: unsupported extension "+filepath.Ext(filename))
	}
}

func parsePDF(filename string, content []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "docparse: open pdf", err)
	}

	var parts []string
	totalPages := reader.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
		}
	}

	return Result{
		Content: strings.Join(parts, "\n\n"),
		Title:   filepath.Base(filename),
		Metadata: map[string]string{
			"type":  "PDF Document",
			"pages": fmt.Sprintf("%d", totalPages),
		},
	}, nil
}

// parseDocx writes content to a temp file: nguyenthenguyen/docx only
// exposes a file-path-based reader, not an in-memory one.
func parseDocx(filename string, content []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "docparse-*.docx")
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "docparse: create temp file", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(content); err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "docparse: write temp file", err)
	}

	doc, err := docx.ReadDocxFile(tmp.Name())
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "docparse: open docx", err)
	}
	defer doc.Close()

	text := doc.Editable().GetContent()
	return Result{
		Content: text,
		Title:   filepath.Base(filename),
		Metadata: map[string]string{
			"type":       "Word Document",
			"paragraphs": fmt.Sprintf("%d", len(strings.Split(text, "\n\n"))),
		},
	}, nil
}

func parseExcel(ctx context.Context, filename string, content []byte) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "docparse: open xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var parts []string
	const maxCellsPerSheet = 1000

	for _, sheetName := range sheets {
		select {
		case <-ctx.Done():
			return Result{Content: strings.Join(parts, "\n\n"), Title: filepath.Base(filename)}, ctx.Err()
		default:
		}

		var sheetText strings.Builder
		fmt.Fprintf(&sheetText, "--- Sheet: %s ---\n", sheetName)

		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		cellCount := 0
		for rowIdx, row := range rows {
			if cellCount >= maxCellsPerSheet {
				sheetText.WriteString("... (truncated)\n")
				break
			}
			for colIdx, cell := range row {
				if cellCount >= maxCellsPerSheet {
					break
				}
				if text := strings.TrimSpace(cell); text != "" {
					ref, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
					fmt.Fprintf(&sheetText, "%s: %s\n", ref, text)
					cellCount++
				}
			}
		}
		parts = append(parts, sheetText.String())
	}

	return Result{
		Content: strings.Join(parts, "\n\n"),
		Title:   filepath.Base(filename),
		Metadata: map[string]string{
			"type":   "Excel Spreadsheet",
			"sheets": fmt.Sprintf("%d", len(sheets)),
		},
	}, nil
}
