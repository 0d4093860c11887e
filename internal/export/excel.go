// Package export renders a scope document into downloadable artifacts.
// The Excel layout follows a fixed six-column contract consumed by
// downstream estimation tooling; changing the header row breaks those
// importers.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

// excelHeaders is the fixed header row of the Features sheet.
var excelHeaders = []string{
	"Modules",
	"Features",
	"Interactions",
	"Notes",
	"Questions/Clarifications",
	"Answers",
}

const sheetName = "Features"

// illegalCharRe matches control characters that are invalid in XLSX
// cell values.
var illegalCharRe = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")

// ToExcel renders the scope document as an XLSX workbook with one
// Features sheet, one row per feature.
func ToExcel(doc *scope.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeRow(f, 1, excelHeaders); err != nil {
		return nil, err
	}

	moduleMap := moduleFeatureMap(doc)
	questions := joinCleaned(questionTexts(doc.OpenQuestions))
	answers := joinCleaned(answerTexts(doc.OpenQuestions))

	for i, feature := range doc.Features {
		modules := moduleMap[clean(feature.Name)]
		if len(modules) == 0 {
			modules = []string{"Unassigned"}
		}
		row := []string{
			strings.Join(modules, ", "),
			clean(feature.Name),
			joinCleaned(feature.AcceptanceCriteria),
			clean(feature.Summary),
			questions,
			answers,
		}
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

// moduleFeatureMap maps each cleaned feature name to the modules that
// reference it. A feature can belong to more than one module.
func moduleFeatureMap(doc *scope.Document) map[string][]string {
	mapping := make(map[string][]string)
	for _, module := range doc.Modules {
		moduleName := clean(module.Name)
		for _, featureName := range module.Features {
			key := clean(featureName)
			mapping[key] = append(mapping[key], moduleName)
		}
	}
	return mapping
}

func questionTexts(questions []scope.OpenQuestion) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Question)
	}
	return out
}

func answerTexts(questions []scope.OpenQuestion) []string {
	var out []string
	for _, q := range questions {
		if q.SuggestedAnswer != "" {
			out = append(out, q.SuggestedAnswer)
		}
	}
	return out
}

func joinCleaned(values []string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		cleaned = append(cleaned, clean(v))
	}
	return strings.Join(cleaned, "; ")
}

func clean(value string) string {
	return illegalCharRe.ReplaceAllString(value, "")
}
