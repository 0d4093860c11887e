package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

func sampleDocument() *scope.Document {
	return &scope.Document{
		ExecutiveSummary: scope.ExecutiveSummary{
			Overview:  "A restaurant ordering platform.",
			KeyPoints: []string{"online ordering", "loyalty program"},
		},
		Personas: []scope.Persona{{
			Name:        "Customer",
			Description: "Orders food online",
			Goals:       []string{"order quickly"},
			PainPoints:  []string{"long queues"},
		}},
		Modules: []scope.Module{
			{Name: "Ordering", Description: "Menu and cart", Features: []string{"Browse Menu", "Checkout"}},
			{Name: "Loyalty", Description: "Points", Features: []string{"Checkout"}},
		},
		Features: []scope.Feature{
			{
				Name:               "Browse Menu",
				Summary:            "List dishes with photos",
				Priority:           scope.PriorityP1,
				AcceptanceCriteria: []string{"menu loads in 2s", "photos shown"},
			},
			{
				Name:     "Checkout",
				Summary:  "Pay for the order",
				Priority: scope.PriorityP1,
			},
			{
				Name:     "Push Notifications",
				Summary:  "Order status updates",
				Priority: scope.PriorityP2,
			},
		},
		FunctionalRequirements: []scope.Requirement{{Statement: "The app must support card payments."}},
		OpenQuestions: []scope.OpenQuestion{
			{Question: "Which payment gateway?", SuggestedAnswer: "Stripe"},
			{Question: "Is delivery in scope?"},
		},
	}
}

func TestToExcelLayout(t *testing.T) {
	data, err := ToExcel(sampleDocument())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Features")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{
		"Modules", "Features", "Interactions", "Notes", "Questions/Clarifications", "Answers",
	}, rows[0])

	assert.Equal(t, "Ordering", rows[1][0])
	assert.Equal(t, "Browse Menu", rows[1][1])
	assert.Equal(t, "menu loads in 2s; photos shown", rows[1][2])
	assert.Equal(t, "List dishes with photos", rows[1][3])
	assert.Equal(t, "Which payment gateway?; Is delivery in scope?", rows[1][4])
	assert.Equal(t, "Stripe", rows[1][5])

	// Checkout belongs to two modules.
	assert.Equal(t, "Ordering, Loyalty", rows[2][0])

	// Push Notifications is referenced by no module.
	assert.Equal(t, "Unassigned", rows[3][0])
}

func TestToExcelEmptyDocument(t *testing.T) {
	data, err := ToExcel(&scope.Document{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Features")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestToExcelStripsControlChars(t *testing.T) {
	doc := &scope.Document{
		Features: []scope.Feature{{Name: "Bad\x00Name", Summary: "has\x07bell"}},
	}
	data, err := ToExcel(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Features")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BadName", rows[1][1])
	assert.Equal(t, "hasbell", rows[1][3])
}

func TestToPDF(t *testing.T) {
	data, err := ToPDF(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 1000)
}

func TestToPDFEmptyDocument(t *testing.T) {
	data, err := ToPDF(&scope.Document{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFeatureModules(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, "Ordering", featureModules(doc, "Browse Menu"))
	assert.Equal(t, "Ordering, Loyalty", featureModules(doc, "Checkout"))
	assert.Equal(t, "Unassigned", featureModules(doc, "Push Notifications"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "plain text", sanitize("plain text"))
	assert.Equal(t, "?smart", sanitize("’smart"))
}
