package service

import (
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time { return epoch.AddDate(0, 0, n) }

func dayPtr(n int) *time.Time {
	t := day(n)
	return &t
}

func hoursAfter(t time.Time, h int) *time.Time {
	v := t.Add(time.Duration(h) * time.Hour)
	return &v
}

const (
	respondent = "respondent"
	petitioner = "petitioner"
	served     = "service of the protective order"
)

// protectiveOrder is the reference scenario: the respondent admits receiving a
// protective order, later swears it was never served, and the court's proof
// of service says otherwise.
type protectiveOrder struct {
	filing      domain.Filing
	declaration domain.Document
	transcript  domain.Document
	admission   domain.Statement
	denial      domain.Statement
	service     domain.Event
	proof       domain.EvidenceIndicator
}

func newProtectiveOrder() *protectiveOrder {
	t := &protectiveOrder{}
	t.filing = domain.Filing{
		ID:    uuid.New(),
		Kind:  domain.FilingMotion,
		Title: "Motion to modify custody",
	}
	t.declaration = domain.Document{
		ID:       uuid.New(),
		FilingID: &t.filing.ID,
		Kind:     domain.DocumentDeclaration,
		Title:    "Respondent declaration",
	}
	t.transcript = domain.Document{
		ID:       uuid.New(),
		FilingID: &t.filing.ID,
		Kind:     domain.DocumentTranscript,
		Title:    "Hearing transcript",
	}
	t.service = domain.Event{
		ID:           uuid.New(),
		OccurredAt:   day(1),
		VerifiedAt:   dayPtr(2),
		Description:  "Protective order personally served on respondent",
		Subject:      served,
		Status:       domain.StatusVerified,
		Category:     domain.EventCategorySafety,
		Participants: []string{respondent},
	}
	t.proof = domain.EvidenceIndicator{
		ID:            uuid.New(),
		Target:        domain.EventRef(t.service.ID),
		Stance:        domain.StanceSupports,
		Credibility:   100,
		Type:          domain.IndicatorOfficialRecord,
		Authenticated: true,
		PublicRecord:  true,
		Description:   "Proof of service filed with the court",
		RecordedAt:    day(2),
	}
	t.admission = domain.Statement{
		ID:         uuid.New(),
		DocumentID: t.transcript.ID,
		SpeakerID:  respondent,
		Text:       "I got the order at my door.",
		Kind:       domain.StatementAdmission,
		AssertedAt: dayPtr(5),
		Subject:    served,
	}
	t.denial = domain.Statement{
		ID:         uuid.New(),
		DocumentID: t.declaration.ID,
		SpeakerID:  respondent,
		Text:       "I was never served with any order.",
		Kind:       domain.StatementTestimony,
		AssertedAt: dayPtr(10),
		UnderOath:  true,
		ReliedUpon: true,
		Subject:    served,
		Negated:    true,
	}
	return t
}

func (t *protectiveOrder) batch() *domain.Batch {
	return &domain.Batch{
		ID:         uuid.New(),
		Filings:    []domain.Filing{t.filing},
		Documents:  []domain.Document{t.declaration, t.transcript},
		Events:     []domain.Event{t.service},
		Statements: []domain.Statement{t.admission, t.denial},
		Indicators: []domain.EvidenceIndicator{t.proof},
	}
}

func (t *protectiveOrder) corpus() *evidence.Corpus {
	return evidence.NewCorpus(evidence.Records{
		Documents:  []domain.Document{t.declaration, t.transcript},
		Filings:    []domain.Filing{t.filing},
		Statements: []domain.Statement{t.admission, t.denial},
		Events:     []domain.Event{t.service},
		Indicators: []domain.EvidenceIndicator{t.proof},
	})
}

// treatyAccession: the respondent swears the destination country is not a
// party to the child-return treaty; the depositary record shows it acceded
// decades earlier. The evidence targets the statement directly.
type treatyAccession struct {
	filing      domain.Filing
	declaration domain.Document
	denial      domain.Statement
	record      domain.EvidenceIndicator
}

func newTreatyAccession() *treatyAccession {
	t := &treatyAccession{}
	t.filing = domain.Filing{
		ID:    uuid.New(),
		Kind:  domain.FilingResponse,
		Title: "Response to petition for return of child",
	}
	t.declaration = domain.Document{
		ID:       uuid.New(),
		FilingID: &t.filing.ID,
		Kind:     domain.DocumentDeclaration,
		Title:    "Respondent declaration opposing return",
	}
	t.denial = domain.Statement{
		ID:         uuid.New(),
		DocumentID: t.declaration.ID,
		SpeakerID:  respondent,
		Text:       "The destination country is not a party to the child-return treaty.",
		Kind:       domain.StatementTestimony,
		AssertedAt: dayPtr(30),
		UnderOath:  true,
		ReliedUpon: true,
		Subject:    "destination country treaty membership",
		Negated:    true,
	}
	t.record = domain.EvidenceIndicator{
		ID:            uuid.New(),
		Target:        t.denial.Ref(),
		Stance:        domain.StanceContradicts,
		Credibility:   95,
		Type:          domain.IndicatorOfficialRecord,
		Authenticated: true,
		PublicRecord:  true,
		SourceRef:     "Treaty depositary status table",
		Description:   "The destination country acceded to the treaty in 1991",
		RecordedAt:    day(15),
	}
	return t
}

func (t *treatyAccession) batch() *domain.Batch {
	return &domain.Batch{
		ID:         uuid.New(),
		Filings:    []domain.Filing{t.filing},
		Documents:  []domain.Document{t.declaration},
		Statements: []domain.Statement{t.denial},
		Indicators: []domain.EvidenceIndicator{t.record},
	}
}

func findRelationship(rels []domain.Relationship, source, target domain.EntityRef, kind domain.RelationshipKind) (domain.Relationship, bool) {
	for _, r := range rels {
		if r.Source == source && r.Target == target && r.Kind == kind {
			return r, true
		}
	}
	return domain.Relationship{}, false
}
