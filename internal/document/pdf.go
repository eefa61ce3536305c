package document

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// PDFInfo describes a local file accepted for upload.
type PDFInfo struct {
	Path  string
	Size  int64
	Pages int
}

// InspectPDF checks that path is a readable PDF with at least one page.
func InspectPDF(path string) (PDFInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PDFInfo{}, errors.NewFileNotFoundError(path)
		}
		return PDFInfo{}, errors.Wrap(errors.ErrCodeFileReadFailed, "cannot read file", err)
	}
	if st.IsDir() {
		return PDFInfo{}, errors.NewInvalidDocumentError(fmt.Sprintf("%s is a directory", path))
	}

	f, r, err := openPDF(path)
	if err != nil {
		return PDFInfo{}, errors.Wrap(errors.ErrCodeInvalidDocument, "invalid file type, please select a PDF", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages < 1 {
		return PDFInfo{}, errors.NewInvalidDocumentError("PDF has no pages")
	}

	return PDFInfo{Path: path, Size: st.Size(), Pages: pages}, nil
}

// openPDF wraps pdf.Open, which panics on some malformed inputs.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				_ = f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return pdf.Open(path)
}
