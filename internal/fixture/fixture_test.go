package fixture

import (
	"strings"
	"testing"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_ProtectiveOrder(t *testing.T) {
	c, err := Builtin("protective-order")
	require.NoError(t, err)
	b, err := c.Batch()
	require.NoError(t, err)

	assert.Len(t, b.Filings, 1)
	assert.Len(t, b.Documents, 3)
	assert.Len(t, b.Events, 2)
	assert.Len(t, b.Statements, 3)
	assert.Len(t, b.Indicators, 2)

	filing := b.Filings[0]
	require.NotNil(t, filing.Outcomes)
	assert.Equal(t, domain.OutcomeStats{Granted: 3, Total: 4}, *filing.Outcomes)
	require.NotNil(t, b.Documents[0].FilingID)
	assert.Equal(t, filing.ID, *b.Documents[0].FilingID)
	assert.Nil(t, b.Documents[2].FilingID)

	denial := b.Statements[1]
	assert.Equal(t, ID("statement", "denial"), denial.ID)
	assert.Equal(t, ID("document", "declaration"), denial.DocumentID)
	assert.True(t, denial.UnderOath)
	assert.NoError(t, denial.Validate())

	proof := b.Indicators[0]
	assert.Equal(t, domain.EventRef(ID("event", "service")), proof.Target)
	require.NotNil(t, proof.DocumentedEventID)
	assert.Equal(t, ID("event", "service"), *proof.DocumentedEventID)
	assert.Equal(t, domain.StatementRef(ID("statement", "pickup-claim")), b.Indicators[1].Target)

	for _, i := range b.Indicators {
		assert.NoError(t, i.Validate())
	}
	for _, e := range b.Events {
		assert.NoError(t, e.Validate())
	}
}

func TestBuiltin_Treaty(t *testing.T) {
	c, err := Builtin("treaty")
	require.NoError(t, err)
	b, err := c.Batch()
	require.NoError(t, err)

	require.Len(t, b.Statements, 2)
	require.Len(t, b.Indicators, 1)
	assert.Empty(t, b.Events)

	denial := b.Statements[0]
	assert.True(t, denial.UnderOath)
	assert.True(t, denial.ReliedUpon)
	assert.True(t, denial.Negated)

	record := b.Indicators[0]
	assert.Equal(t, denial.Ref(), record.Target)
	assert.Equal(t, domain.StanceContradicts, record.Stance)
	assert.True(t, record.PublicRecord)
	assert.Nil(t, record.DocumentedEventID)
	assert.NoError(t, record.Validate())
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"protective-order", "treaty"}, List())
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protective-order, treaty")
}

func TestID_IsStable(t *testing.T) {
	assert.Equal(t, ID("statement", "denial"), ID("statement", "denial"))
	assert.NotEqual(t, ID("statement", "denial"), ID("event", "denial"))
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("name: x\nstatments: []\n"))
	assert.Error(t, err)
}

func TestBatch_UnknownReferences(t *testing.T) {
	c, err := Load(strings.NewReader(`
name: broken
statements:
  - key: s1
    document: missing-doc
    speaker: petitioner
    text: hello
    kind: claim
indicators:
  - key: i1
    target: event:nowhere
    stance: supports
    credibility: 50
    type: witness
`))
	require.NoError(t, err)

	_, err = c.Batch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document:missing-doc")
	assert.Contains(t, err.Error(), "event:nowhere")
}

func TestBatch_InvalidTarget(t *testing.T) {
	c := &Corpus{Name: "x", Indicators: []Indicator{{Key: "i", Target: "party:respondent"}}}
	_, err := c.Batch()
	assert.ErrorContains(t, err, "invalid target")
}
