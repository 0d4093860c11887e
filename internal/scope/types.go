// Package scope defines the structured scope document produced by the
// ingestion pipeline and provides a deterministic heuristic parser that
// turns raw discovery text into one. The parser is also the fallback
// path when LLM-based generation fails.
package scope

// Priority levels for features.
const (
	PriorityP1 = "P1"
	PriorityP2 = "P2"
	PriorityP3 = "P3"
)

// ExecutiveSummary is the top-level narrative of a scope document.
type ExecutiveSummary struct {
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
}

// Persona describes a user role identified in the source document.
type Persona struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Goals       []string `json:"goals"`
	PainPoints  []string `json:"pain_points"`
}

// Module groups related features by name reference.
// Feature names listed here should correspond to entries in the
// document's top-level Features slice; unresolved references are
// tolerated, not an error.
type Module struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Feature is a single deliverable unit of functionality.
type Feature struct {
	Name               string   `json:"name"`
	Summary            string   `json:"summary"`
	Priority           string   `json:"priority"`
	Dependencies       []string `json:"dependencies"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// Requirement is a single requirement statement.
type Requirement struct {
	Statement string `json:"statement"`
}

// OpenQuestion is an unresolved question surfaced by the pipeline.
type OpenQuestion struct {
	Question        string `json:"question"`
	SuggestedAnswer string `json:"suggested_answer,omitempty"`
}

// Document is the structured output of scope generation.
type Document struct {
	ExecutiveSummary          ExecutiveSummary `json:"executive_summary"`
	Personas                  []Persona        `json:"personas"`
	Modules                   []Module         `json:"modules"`
	Features                  []Feature        `json:"features"`
	FunctionalRequirements    []Requirement    `json:"functional_requirements"`
	TechnicalRequirements     []Requirement    `json:"technical_requirements"`
	NonFunctionalRequirements []Requirement    `json:"non_functional_requirements"`
	OpenQuestions             []OpenQuestion   `json:"open_questions"`
}

// Clone returns a deep copy of the document. History snapshots must not
// alias the live document's slices.
func (d Document) Clone() Document {
	out := d
	out.ExecutiveSummary.KeyPoints = cloneStrings(d.ExecutiveSummary.KeyPoints)
	if d.Personas != nil {
		out.Personas = make([]Persona, len(d.Personas))
		for i, p := range d.Personas {
			p.Goals = cloneStrings(p.Goals)
			p.PainPoints = cloneStrings(p.PainPoints)
			out.Personas[i] = p
		}
	}
	if d.Modules != nil {
		out.Modules = make([]Module, len(d.Modules))
		for i, m := range d.Modules {
			m.Features = cloneStrings(m.Features)
			out.Modules[i] = m
		}
	}
	if d.Features != nil {
		out.Features = make([]Feature, len(d.Features))
		for i, f := range d.Features {
			f.Dependencies = cloneStrings(f.Dependencies)
			f.AcceptanceCriteria = cloneStrings(f.AcceptanceCriteria)
			out.Features[i] = f
		}
	}
	out.FunctionalRequirements = cloneRequirements(d.FunctionalRequirements)
	out.TechnicalRequirements = cloneRequirements(d.TechnicalRequirements)
	out.NonFunctionalRequirements = cloneRequirements(d.NonFunctionalRequirements)
	if d.OpenQuestions != nil {
		out.OpenQuestions = append([]OpenQuestion(nil), d.OpenQuestions...)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRequirements(in []Requirement) []Requirement {
	if in == nil {
		return nil
	}
	return append([]Requirement(nil), in...)
}
