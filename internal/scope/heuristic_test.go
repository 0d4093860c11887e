package scope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModuleGrouping(t *testing.T) {
	parser := NewHeuristicParser()
	text := "Module: Reporting\n" +
		"- should allow users to filter deals by stage\n" +
		"- system must integrate with the legacy API.\n" +
		"Are there regional compliance considerations?"

	doc := parser.Parse(text)

	require.NotEmpty(t, doc.Modules)
	var reporting *Module
	for i := range doc.Modules {
		if doc.Modules[i].Name == "Reporting" {
			reporting = &doc.Modules[i]
		}
	}
	require.NotNil(t, reporting, "expected a Reporting module")
	assert.NotEmpty(t, reporting.Features)

	require.NotEmpty(t, doc.TechnicalRequirements)
	found := false
	for _, req := range doc.TechnicalRequirements {
		if strings.HasPrefix(req.Statement, "system must integrate") {
			found = true
		}
	}
	assert.True(t, found, "expected a technical requirement starting with 'system must integrate'")

	require.NotEmpty(t, doc.OpenQuestions)
	assert.True(t, strings.HasSuffix(doc.OpenQuestions[0].Question, "?"))
}

func TestParseKeywordHeavyText(t *testing.T) {
	parser := NewHeuristicParser()
	sentence := "The platform must expose an API for dashboards with authentication and respond under two seconds. "
	text := strings.Repeat(sentence, 8)
	require.GreaterOrEqual(t, len(text), 500)

	doc := parser.Parse(text)

	assert.GreaterOrEqual(t, len(doc.Features), 1)
	assert.GreaterOrEqual(t, len(doc.TechnicalRequirements), 1)
	assert.NotEmpty(t, doc.FunctionalRequirements)
	assert.NotEmpty(t, doc.ExecutiveSummary.Overview)
}

func TestParsePersonas(t *testing.T) {
	parser := NewHeuristicParser()

	tests := []struct {
		name      string
		text      string
		wantNames []string
	}{
		{
			name:      "persona prefix line",
			text:      "Persona: field technician\nThe app tracks work orders.",
			wantNames: []string{"Field Technician"},
		},
		{
			name:      "role keyword with colon",
			text:      "Admin: manages the back office and approves refunds.",
			wantNames: []string{"Admin"},
		},
		{
			name:      "inferred from first sentence",
			text:      "A scheduling tool for clinic staff. It books appointments.",
			wantNames: []string{"Clinic Staff."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parser.Parse(tt.text)
			require.Len(t, doc.Personas, len(tt.wantNames))
			for i, want := range tt.wantNames {
				assert.Equal(t, want, doc.Personas[i].Name)
			}
		})
	}
}

func TestParseMergesDuplicatePersonas(t *testing.T) {
	parser := NewHeuristicParser()
	text := "Admin: manages users\nAdmin: configures billing"

	doc := parser.Parse(text)

	require.Len(t, doc.Personas, 1)
	assert.Contains(t, doc.Personas[0].Description, "manages users")
	assert.Contains(t, doc.Personas[0].Description, "configures billing")
}

func TestParsePriorityFromSummary(t *testing.T) {
	parser := NewHeuristicParser()
	text := "- checkout must support saved cards\n- wishlist lets shoppers save items"

	doc := parser.Parse(text)

	require.Len(t, doc.Features, 2)
	byName := make(map[string]Feature)
	for _, f := range doc.Features {
		byName[f.Name] = f
	}
	assert.Equal(t, PriorityP1, byName["Checkout Must Support Saved Cards"].Priority)
	assert.Equal(t, PriorityP2, byName["Wishlist Lets Shoppers Save Items"].Priority)
}

func TestParsePlaceholderFeature(t *testing.T) {
	parser := NewHeuristicParser()
	doc := parser.Parse("Plain prose with nothing actionable at all")

	require.Len(t, doc.Features, 1)
	assert.Equal(t, "General Feature", doc.Features[0].Name)
}

func TestParseDropsEmptyGeneralModule(t *testing.T) {
	parser := NewHeuristicParser()
	text := "Module: Billing\n- invoices can be exported monthly"

	doc := parser.Parse(text)

	for _, m := range doc.Modules {
		assert.NotEqual(t, "General", m.Name)
	}
}

func TestParseAllCapsHeading(t *testing.T) {
	parser := NewHeuristicParser()
	text := "CUSTOMER PORTAL\n- customers view invoices online"

	doc := parser.Parse(text)

	names := make([]string, 0, len(doc.Modules))
	for _, m := range doc.Modules {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "Customer Portal")
}

func TestParseRequirementCaps(t *testing.T) {
	parser := NewHeuristicParser()
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("The system must handle case number ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(". ")
	}

	doc := parser.Parse(b.String())

	assert.LessOrEqual(t, len(doc.FunctionalRequirements), 8)
}

func TestParseDeduplicatesRequirements(t *testing.T) {
	parser := NewHeuristicParser()
	text := "The app must sync offline. The app MUST sync offline."

	doc := parser.Parse(text)

	assert.Len(t, doc.FunctionalRequirements, 1)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First point. Second point! Third?")
	require.Len(t, sentences, 3)
	assert.Equal(t, "First point.", sentences[0])
	assert.Equal(t, "Second point!", sentences[1])
	assert.Equal(t, "Third?", sentences[2])
}

func TestCloneIsDeep(t *testing.T) {
	doc := Document{
		Features: []Feature{{Name: "A", AcceptanceCriteria: []string{"one"}}},
		Modules:  []Module{{Name: "M", Features: []string{"A"}}},
	}
	cp := doc.Clone()
	cp.Features[0].AcceptanceCriteria[0] = "changed"
	cp.Modules[0].Features[0] = "B"

	assert.Equal(t, "one", doc.Features[0].AcceptanceCriteria[0])
	assert.Equal(t, "A", doc.Modules[0].Features[0])
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"e-commerce platform", "E-Commerce Platform"},
		{"ORDER MANAGEMENT", "Order Management"},
		{"self-service/admin tools", "Self-Service/Admin Tools"},
		{"billing", "Billing"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), tt.in)
	}
}
