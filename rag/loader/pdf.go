// Package loader extracts page-level text from source documents.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sweetpotato0/carequery/rag/document"
)

// LoadError indicates the source file is unreadable or not a supported
// format.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PDFLoader extracts page text from PDF files using pdfcpu.
type PDFLoader struct {
	tempDir string
}

// NewPDFLoader creates a loader. Extraction scratch files go to the system
// temp directory.
func NewPDFLoader() *PDFLoader {
	tempDir := filepath.Join(os.TempDir(), "carequery-pdf")
	os.MkdirAll(tempDir, 0o755)
	return &PDFLoader{tempDir: tempDir}
}

// Load extracts page-level text content from the PDF at path.
func (l *PDFLoader) Load(path string) ([]document.RawPage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported format %q", filepath.Ext(path))}
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read PDF context: %w", err)}
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(l.tempDir, "pages_")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("extract content: %w", err)}
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
			continue
		}
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	pages := make([]document.RawPage, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, document.RawPage{
			Number: pageNum,
			Text:   pageTexts[pageNum],
		})
	}
	return pages, nil
}
