// Package textextract converts uploaded file bytes into plain text.
// PDF and DOCX files get format-aware extraction; everything else is
// treated as UTF-8 text with invalid bytes dropped. Extraction never
// fails: format errors fall back to the plain-text path.
package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"
)

// FromBytes extracts text from an uploaded file. The filename's
// extension selects the extraction strategy.
func FromBytes(filename string, data []byte) string {
	if len(data) == 0 {
		return ""
	}

	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		if text, err := pdfText(data); err == nil {
			return text
		}
	case strings.HasSuffix(strings.ToLower(filename), ".docx"):
		if text, err := docxText(data); err == nil {
			return text
		}
	}
	return strings.ToValidUTF8(string(data), "")
}

func pdfText(data []byte) (string, error) {
	reader, err := ledongpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// documentXML mirrors the paragraph/run/text nesting of
// word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// docxText reads paragraphs from the word/document.xml entry of the
// DOCX zip container.
func docxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return parseDocumentXML(content)
	}
	return "", nil
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				b.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
