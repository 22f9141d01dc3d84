package pdfextract

import (
	"bytes"
	"errors"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads all of r and extracts the PDF's plain text.
// A structurally invalid PDF yields an error; a valid PDF with no text
// layer yields an empty string.
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("empty pdf input")
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", err
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
