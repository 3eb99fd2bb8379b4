// Package evidence holds the read-only view of statements, events, evidence
// indicators and documents that every scoring stage works against.
package evidence

import (
	"sort"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
)

const DefaultSimilarityThreshold = 0.9

// Records is the raw material for a Corpus.
type Records struct {
	Documents  []domain.Document
	Filings    []domain.Filing
	Statements []domain.Statement
	Events     []domain.Event
	Indicators []domain.EvidenceIndicator

	// SimilarityThreshold is the cosine similarity at which two statements
	// without subject keys are treated as being about the same thing.
	SimilarityThreshold float64
}

// Corpus is an immutable, indexed snapshot of the evidence base. All lookups
// return entities in a deterministic order.
type Corpus struct {
	documents  map[uuid.UUID]*domain.Document
	filings    map[uuid.UUID]*domain.Filing
	statements map[uuid.UUID]*domain.Statement
	events     map[uuid.UUID]*domain.Event
	indicators map[uuid.UUID]*domain.EvidenceIndicator

	documentOrder  []*domain.Document
	filingOrder    []*domain.Filing
	statementOrder []*domain.Statement
	eventOrder     []*domain.Event
	speakers       []string

	bySpeaker  map[string][]*domain.Statement
	byDocument map[uuid.UUID][]*domain.Statement
	byFiling   map[uuid.UUID][]*domain.Document
	byTarget   map[domain.EntityRef][]*domain.EvidenceIndicator

	similarity float64
}

func NewCorpus(in Records) *Corpus {
	c := &Corpus{
		documents:  make(map[uuid.UUID]*domain.Document, len(in.Documents)),
		filings:    make(map[uuid.UUID]*domain.Filing, len(in.Filings)),
		statements: make(map[uuid.UUID]*domain.Statement, len(in.Statements)),
		events:     make(map[uuid.UUID]*domain.Event, len(in.Events)),
		indicators: make(map[uuid.UUID]*domain.EvidenceIndicator, len(in.Indicators)),
		bySpeaker:  make(map[string][]*domain.Statement),
		byDocument: make(map[uuid.UUID][]*domain.Statement),
		byFiling:   make(map[uuid.UUID][]*domain.Document),
		byTarget:   make(map[domain.EntityRef][]*domain.EvidenceIndicator),
		similarity: in.SimilarityThreshold,
	}
	if c.similarity <= 0 {
		c.similarity = DefaultSimilarityThreshold
	}

	for i := range in.Documents {
		d := in.Documents[i]
		c.documents[d.ID] = &d
	}
	for i := range in.Filings {
		f := in.Filings[i]
		c.filings[f.ID] = &f
	}
	for i := range in.Statements {
		s := in.Statements[i]
		c.statements[s.ID] = &s
	}
	for i := range in.Events {
		e := in.Events[i]
		c.events[e.ID] = &e
	}
	for i := range in.Indicators {
		ind := in.Indicators[i]
		c.indicators[ind.ID] = &ind
	}

	for _, d := range c.documents {
		c.documentOrder = append(c.documentOrder, d)
	}
	sort.Slice(c.documentOrder, func(i, j int) bool { return idLess(c.documentOrder[i].ID, c.documentOrder[j].ID) })
	for _, d := range c.documentOrder {
		if d.FilingID != nil {
			c.byFiling[*d.FilingID] = append(c.byFiling[*d.FilingID], d)
		}
	}

	for _, f := range c.filings {
		c.filingOrder = append(c.filingOrder, f)
	}
	sort.Slice(c.filingOrder, func(i, j int) bool { return idLess(c.filingOrder[i].ID, c.filingOrder[j].ID) })

	for _, s := range c.statements {
		c.statementOrder = append(c.statementOrder, s)
	}
	sort.Slice(c.statementOrder, func(i, j int) bool {
		return statementLess(c.statementOrder[i], c.statementOrder[j])
	})
	for _, s := range c.statementOrder {
		if _, seen := c.bySpeaker[s.SpeakerID]; !seen {
			c.speakers = append(c.speakers, s.SpeakerID)
		}
		c.bySpeaker[s.SpeakerID] = append(c.bySpeaker[s.SpeakerID], s)
		c.byDocument[s.DocumentID] = append(c.byDocument[s.DocumentID], s)
	}
	sort.Strings(c.speakers)

	for _, e := range c.events {
		c.eventOrder = append(c.eventOrder, e)
	}
	sort.Slice(c.eventOrder, func(i, j int) bool {
		a, b := c.eventOrder[i], c.eventOrder[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		return idLess(a.ID, b.ID)
	})

	inds := make([]*domain.EvidenceIndicator, 0, len(c.indicators))
	for _, ind := range c.indicators {
		inds = append(inds, ind)
	}
	sort.Slice(inds, func(i, j int) bool { return idLess(inds[i].ID, inds[j].ID) })
	for _, ind := range inds {
		c.byTarget[ind.Target] = append(c.byTarget[ind.Target], ind)
	}
	return c
}

func idLess(a, b uuid.UUID) bool { return a.String() < b.String() }

// statementLess orders by assertion time, undated statements last, then id.
func statementLess(a, b *domain.Statement) bool {
	switch {
	case a.AssertedAt != nil && b.AssertedAt != nil:
		if !a.AssertedAt.Equal(*b.AssertedAt) {
			return a.AssertedAt.Before(*b.AssertedAt)
		}
	case a.AssertedAt != nil:
		return true
	case b.AssertedAt != nil:
		return false
	}
	return idLess(a.ID, b.ID)
}

func (c *Corpus) Statement(id uuid.UUID) (*domain.Statement, bool) {
	s, ok := c.statements[id]
	return s, ok
}

func (c *Corpus) Event(id uuid.UUID) (*domain.Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

func (c *Corpus) Document(id uuid.UUID) (*domain.Document, bool) {
	d, ok := c.documents[id]
	return d, ok
}

func (c *Corpus) Filing(id uuid.UUID) (*domain.Filing, bool) {
	f, ok := c.filings[id]
	return f, ok
}

func (c *Corpus) Indicator(id uuid.UUID) (*domain.EvidenceIndicator, bool) {
	i, ok := c.indicators[id]
	return i, ok
}

// Statements returns every statement in assertion order.
func (c *Corpus) Statements() []*domain.Statement { return c.statementOrder }

// Events returns every event in occurrence order.
func (c *Corpus) Events() []*domain.Event { return c.eventOrder }

func (c *Corpus) Documents() []*domain.Document { return c.documentOrder }

func (c *Corpus) Filings() []*domain.Filing { return c.filingOrder }

// Speakers returns every speaker id, sorted.
func (c *Corpus) Speakers() []string { return c.speakers }

// EventsByID exposes the event lookup used by rule predicates.
func (c *Corpus) EventsByID() map[uuid.UUID]*domain.Event { return c.events }

func (c *Corpus) StatementsBySpeaker(speaker string) []*domain.Statement {
	return c.bySpeaker[speaker]
}

func (c *Corpus) StatementsInDocument(documentID uuid.UUID) []*domain.Statement {
	return c.byDocument[documentID]
}

func (c *Corpus) DocumentsInFiling(filingID uuid.UUID) []*domain.Document {
	return c.byFiling[filingID]
}

// IndicatorsFor returns the indicators targeting ref, ordered by id.
func (c *Corpus) IndicatorsFor(ref domain.EntityRef) []*domain.EvidenceIndicator {
	return c.byTarget[ref]
}

// Exists reports whether ref names an entity in the corpus.
func (c *Corpus) Exists(ref domain.EntityRef) bool {
	switch ref.Type {
	case domain.EntityStatement:
		_, ok := c.statements[ref.ID]
		return ok
	case domain.EntityEvent:
		_, ok := c.events[ref.ID]
		return ok
	case domain.EntityEvidence:
		_, ok := c.indicators[ref.ID]
		return ok
	case domain.EntityDocument:
		_, ok := c.documents[ref.ID]
		return ok
	}
	return false
}

// SameSubject reports whether two statements are about the same thing:
// equal subject keys, or, when either key is missing, embeddings at least
// as similar as the corpus threshold.
func (c *Corpus) SameSubject(a, b *domain.Statement) bool {
	ka, kb := a.SubjectKey(), b.SubjectKey()
	if ka != "" && kb != "" {
		return ka == kb
	}
	if len(a.Embedding) == 0 || len(b.Embedding) == 0 {
		return false
	}
	return CosineSimilarity(a.Embedding, b.Embedding) >= c.similarity
}

// AboutEvent reports whether the statement and the event share a subject key.
func (c *Corpus) AboutEvent(s *domain.Statement, e *domain.Event) bool {
	ks := s.SubjectKey()
	return ks != "" && ks == e.SubjectKey()
}
