package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

var (
	codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// parseScopeResponse turns an LLM reply into a scope document. It first
// strips markdown code fences and attempts a strict parse; if that
// fails it recovers the outermost JSON block from surrounding prose and
// retries once. All failures collapse to ErrParse.
func parseScopeResponse(raw string) (scope.Document, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return scope.Document{}, fmt.Errorf("%w: empty response", ErrParse)
	}

	doc, err := parseStrict(cleaned)
	if err == nil {
		return doc, nil
	}

	block := jsonBlockRe.FindString(cleaned)
	if block != "" && block != cleaned {
		if doc, err2 := parseStrict(block); err2 == nil {
			return doc, nil
		}
	}
	return scope.Document{}, fmt.Errorf("%w: %v", ErrParse, err)
}

// stripCodeFences removes a surrounding markdown code fence, if any.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return trimmed
}

func parseStrict(text string) (scope.Document, error) {
	var doc scope.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return scope.Document{}, err
	}
	for i := range doc.Features {
		switch doc.Features[i].Priority {
		case scope.PriorityP1, scope.PriorityP2, scope.PriorityP3:
		case "":
			doc.Features[i].Priority = scope.PriorityP2
		default:
			return scope.Document{}, fmt.Errorf("invalid feature priority %q", doc.Features[i].Priority)
		}
	}
	return doc, nil
}
