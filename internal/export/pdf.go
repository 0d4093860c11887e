package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

// pdfWriter wraps fpdf with the three text styles the scope layout
// uses.
type pdfWriter struct {
	pdf *fpdf.Fpdf
}

func newPDFWriter() *pdfWriter {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(25, 25, 25)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()
	return &pdfWriter{pdf: pdf}
}

func (w *pdfWriter) heading(text string) {
	w.pdf.SetFont("Helvetica", "B", 16)
	w.pdf.MultiCell(0, 8, sanitize(text), "", "L", false)
	w.pdf.Ln(3)
}

func (w *pdfWriter) subheading(text string) {
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.MultiCell(0, 6, sanitize(text), "", "L", false)
	w.pdf.Ln(1)
}

func (w *pdfWriter) body(text string) {
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(0, 5, sanitize(text), "", "L", false)
	w.pdf.Ln(1)
}

func (w *pdfWriter) pageBreak() {
	w.pdf.AddPage()
}

// ToPDF renders the scope document as a sectioned PDF: executive
// summary, personas, modules and features, requirements, and open
// questions, each on its own page.
func ToPDF(doc *scope.Document) ([]byte, error) {
	w := newPDFWriter()

	w.heading("Executive Summary")
	overview := doc.ExecutiveSummary.Overview
	if overview == "" {
		overview = "Summary not provided."
	}
	w.body(overview)
	if len(doc.ExecutiveSummary.KeyPoints) > 0 {
		w.subheading("Key Points")
		for _, point := range doc.ExecutiveSummary.KeyPoints {
			w.body("- " + point)
		}
	}

	if len(doc.Personas) > 0 {
		w.pageBreak()
		w.heading("Personas")
		for _, persona := range doc.Personas {
			w.subheading(persona.Name)
			if persona.Description != "" {
				w.body(persona.Description)
			}
			if len(persona.Goals) > 0 {
				w.body("Goals:")
				for _, goal := range persona.Goals {
					w.body("- " + goal)
				}
			}
			if len(persona.PainPoints) > 0 {
				w.body("Pain Points:")
				for _, pain := range persona.PainPoints {
					w.body("- " + pain)
				}
			}
		}
	}

	if len(doc.Modules) > 0 || len(doc.Features) > 0 {
		w.pageBreak()
		w.heading("Modules & Features")
		for _, feature := range doc.Features {
			w.subheading(fmt.Sprintf("%s (%s)", feature.Name, featureModules(doc, feature.Name)))
			w.body("Priority: " + feature.Priority)
			if feature.Summary != "" {
				w.body(feature.Summary)
			}
			if len(feature.Dependencies) > 0 {
				w.body("Dependencies: " + strings.Join(feature.Dependencies, ", "))
			}
			if len(feature.AcceptanceCriteria) > 0 {
				w.body("Acceptance Criteria:")
				for _, criteria := range feature.AcceptanceCriteria {
					w.body("- " + criteria)
				}
			}
		}
	}

	if len(doc.FunctionalRequirements) > 0 || len(doc.TechnicalRequirements) > 0 || len(doc.NonFunctionalRequirements) > 0 {
		w.pageBreak()
		w.heading("Requirements")
		writeRequirements(w, "Functional", doc.FunctionalRequirements)
		writeRequirements(w, "Technical", doc.TechnicalRequirements)
		writeRequirements(w, "Non-Functional", doc.NonFunctionalRequirements)
	}

	if len(doc.OpenQuestions) > 0 {
		w.pageBreak()
		w.heading("Open Questions")
		for _, question := range doc.OpenQuestions {
			w.body("- " + question.Question)
			if question.SuggestedAnswer != "" {
				w.body("Suggested answer: " + question.SuggestedAnswer)
			}
		}
	}

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRequirements(w *pdfWriter, title string, reqs []scope.Requirement) {
	if len(reqs) == 0 {
		return
	}
	w.subheading(title)
	for _, req := range reqs {
		w.body("- " + req.Statement)
	}
}

// featureModules lists the modules referencing a feature, in document
// order, or "Unassigned" when no module claims it.
func featureModules(doc *scope.Document, featureName string) string {
	var names []string
	for _, module := range doc.Modules {
		for _, name := range module.Features {
			if name == featureName {
				names = append(names, module.Name)
				break
			}
		}
	}
	if len(names) == 0 {
		return "Unassigned"
	}
	return strings.Join(names, ", ")
}

// sanitize replaces characters outside the built-in cp1252 font range
// so fpdf does not emit garbled glyphs.
func sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			return r
		}
		if r >= 0xa0 && r <= 0xff {
			return r
		}
		return '?'
	}, text)
}
