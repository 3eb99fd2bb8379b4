package service

import (
	"sort"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// ScoreSet maps statement ids to their latest score records.
type ScoreSet map[uuid.UUID]*domain.ScoreRecord

// Aggregator rolls statement scores up to documents, filings and parties.
type Aggregator struct {
	logger *zap.Logger

	Weights       domain.CompositeWeights
	FilingWeights map[string]float64
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		logger:        logger,
		Weights:       domain.WeightsV1,
		FilingWeights: domain.FilingWeights,
	}
}

// weightedProjections is the evidence-weighted mean of the four composite
// axes over the given statements' scores.
func weightedProjections(statements []*domain.Statement, scores ScoreSet) (domain.Projections, []string, bool) {
	var es, li, sv, ic, w []float64
	var hashes []string
	for _, st := range statements {
		rec, ok := scores[st.ID]
		if !ok {
			continue
		}
		p := rec.Dimensions.Projections()
		es = append(es, p.EvidenceStrength)
		li = append(li, p.LegalImpact)
		sv = append(sv, p.StrategicValue)
		ic = append(ic, p.IntentConduct)
		w = append(w, rec.EvidenceWeight())
		hashes = append(hashes, st.ID.String()+":"+rec.InputHash)
	}
	if len(w) == 0 {
		return domain.Projections{}, nil, false
	}
	sort.Strings(hashes)
	return domain.Projections{
		EvidenceStrength: stat.Mean(es, w),
		LegalImpact:      stat.Mean(li, w),
		StrategicValue:   stat.Mean(sv, w),
		IntentConduct:    stat.Mean(ic, w),
	}, hashes, true
}

// Document aggregates the scored statements of a document. It returns nil
// when none of them is scored.
func (a *Aggregator) Document(doc *domain.Document, corpus *evidence.Corpus, scores ScoreSet) *domain.AggregateScore {
	statements := corpus.StatementsInDocument(doc.ID)
	proj, hashes, ok := weightedProjections(statements, scores)
	if !ok {
		return nil
	}
	return &domain.AggregateScore{
		Scope:          domain.ScopeDocument,
		ScopeID:        doc.ID.String(),
		WeightsVersion: a.Weights.Version,
		Dimensions:     proj.Rounded(),
		Composite:      a.Weights.Combine(proj),
		StatementCount: len(hashes),
		InputHash: domain.InputHash(struct {
			Weights domain.CompositeWeights `json:"weights"`
			Scope   string                  `json:"scope"`
			Scores  []string                `json:"scores"`
		}{a.Weights, doc.ID.String(), hashes}),
	}
}

// Party aggregates every scored statement attributed to the party.
func (a *Aggregator) Party(party string, corpus *evidence.Corpus, scores ScoreSet) *domain.AggregateScore {
	proj, hashes, ok := weightedProjections(corpus.StatementsBySpeaker(party), scores)
	if !ok {
		return nil
	}
	return &domain.AggregateScore{
		Scope:          domain.ScopeParty,
		ScopeID:        party,
		WeightsVersion: a.Weights.Version,
		Dimensions:     proj.Rounded(),
		Composite:      a.Weights.Combine(proj),
		StatementCount: len(hashes),
		InputHash: domain.InputHash(struct {
			Weights domain.CompositeWeights `json:"weights"`
			Scope   string                  `json:"scope"`
			Scores  []string                `json:"scores"`
		}{a.Weights, party, hashes}),
	}
}

// relationshipDigest is the part of a relationship a filing aggregate reads.
type relationshipDigest struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Strength int    `json:"strength"`
	Primary  bool   `json:"primary"`
}

// Filing combines the document average with legal sufficiency, the
// corroboration network and historical success. Components that cannot be
// computed are omitted and the remaining weights renormalized. documents
// holds the filing's document aggregates keyed by document id; relationships
// are the effective ones.
func (a *Aggregator) Filing(f *domain.Filing, corpus *evidence.Corpus, scores ScoreSet, documents map[uuid.UUID]*domain.AggregateScore, relationships []domain.Relationship) *domain.AggregateScore {
	var statements []*domain.Statement
	var docHashes []string
	var docComposites, docWeights []float64
	for _, d := range corpus.DocumentsInFiling(f.ID) {
		statements = append(statements, corpus.StatementsInDocument(d.ID)...)
		if agg, ok := documents[d.ID]; ok && agg != nil {
			docComposites = append(docComposites, float64(agg.Composite))
			docWeights = append(docWeights, float64(agg.StatementCount))
			docHashes = append(docHashes, d.ID.String()+":"+agg.InputHash)
		}
	}
	proj, scoreHashes, ok := weightedProjections(statements, scores)
	if !ok {
		return nil
	}
	sort.Strings(docHashes)

	related := make(map[domain.EntityRef][]domain.Relationship)
	var digests []relationshipDigest
	for _, r := range relationships {
		if !r.Active {
			continue
		}
		related[r.Source] = append(related[r.Source], r)
		related[r.Target] = append(related[r.Target], r)
	}

	components := make(map[string]int)
	if len(docComposites) > 0 {
		components[domain.ComponentDocumentAverage] = domain.ClampFloat(stat.Mean(docComposites, docWeights))
	}
	if v, ok := legalSufficiency(f, statements, corpus, related); ok {
		components[domain.ComponentLegalSufficiency] = v
	}
	if v, ok := corroboration(statements, corpus, related); ok {
		components[domain.ComponentCorroboration] = v
	}
	if rate, ok := f.Outcomes.SuccessRate(); ok {
		components[domain.ComponentPredictedSuccess] = domain.ClampFloat(rate * 1000)
	}

	var omitted []string
	var total, weightSum float64
	for _, name := range domain.FilingComponentOrder {
		v, ok := components[name]
		if !ok {
			omitted = append(omitted, name)
			continue
		}
		total += a.FilingWeights[name] * float64(v)
		weightSum += a.FilingWeights[name]
	}
	composite := 0
	if weightSum > 0 {
		composite = domain.ClampFloat(total / weightSum)
	}

	seen := make(map[uuid.UUID]bool)
	for _, st := range statements {
		for _, r := range related[st.Ref()] {
			if !seen[r.ID] {
				seen[r.ID] = true
				digests = append(digests, relationshipDigest{r.ID.String(), string(r.Kind), r.Strength, r.Primary})
			}
		}
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].ID < digests[j].ID })
	var indicators []string
	for _, st := range statements {
		for _, ind := range corpus.IndicatorsFor(st.Ref()) {
			indicators = append(indicators, ind.ID.String()+":"+string(ind.Stance))
		}
	}
	sort.Strings(indicators)

	return &domain.AggregateScore{
		Scope:             domain.ScopeFiling,
		ScopeID:           f.ID.String(),
		WeightsVersion:    a.Weights.Version,
		Dimensions:        proj.Rounded(),
		Composite:         composite,
		Components:        components,
		OmittedComponents: omitted,
		StatementCount:    len(scoreHashes),
		InputHash: domain.InputHash(struct {
			Weights       domain.CompositeWeights `json:"weights"`
			FilingWeights map[string]float64      `json:"filing_weights"`
			Filing        string                  `json:"filing"`
			Required      []string                `json:"required"`
			Outcomes      *domain.OutcomeStats    `json:"outcomes"`
			Documents     []string                `json:"documents"`
			Scores        []string                `json:"scores"`
			Relationships []relationshipDigest    `json:"relationships"`
			Indicators    []string                `json:"indicators"`
		}{a.Weights, a.FilingWeights, f.ID.String(), f.RequiredElements, f.Outcomes, docHashes, scoreHashes, digests, indicators}),
	}
}

// legalSufficiency is the share of required elements backed by a filing
// statement on that subject with supporting evidence or a primary supports
// relationship.
func legalSufficiency(f *domain.Filing, statements []*domain.Statement, corpus *evidence.Corpus, related map[domain.EntityRef][]domain.Relationship) (int, bool) {
	if len(f.RequiredElements) == 0 {
		return 0, false
	}
	met := 0
	for _, element := range f.RequiredElements {
		key := domain.NormalizeSubject(element)
		for _, st := range statements {
			if st.SubjectKey() == key && backed(st, corpus, related) {
				met++
				break
			}
		}
	}
	return domain.ClampFloat(float64(met) / float64(len(f.RequiredElements)) * 1000), true
}

func backed(st *domain.Statement, corpus *evidence.Corpus, related map[domain.EntityRef][]domain.Relationship) bool {
	for _, ind := range corpus.IndicatorsFor(st.Ref()) {
		if ind.Stance == domain.StanceSupports {
			return true
		}
	}
	for _, r := range related[st.Ref()] {
		if r.Kind == domain.RelSupports && r.Primary && r.Source == st.Ref() {
			return true
		}
	}
	return false
}

// corroboration is the share of statements supported by something outside
// their own document: evidence, an event or another document's statement.
func corroboration(statements []*domain.Statement, corpus *evidence.Corpus, related map[domain.EntityRef][]domain.Relationship) (int, bool) {
	if len(statements) == 0 {
		return 0, false
	}
	count := 0
	for _, st := range statements {
		if corroborated(st, corpus, related) {
			count++
		}
	}
	return domain.ClampFloat(float64(count) / float64(len(statements)) * 1000), true
}

func corroborated(st *domain.Statement, corpus *evidence.Corpus, related map[domain.EntityRef][]domain.Relationship) bool {
	for _, ind := range corpus.IndicatorsFor(st.Ref()) {
		if ind.Stance == domain.StanceSupports {
			return true
		}
	}
	for _, r := range related[st.Ref()] {
		if r.Kind != domain.RelSupports {
			continue
		}
		other := r.Other(st.Ref())
		switch other.Type {
		case domain.EntityEvent, domain.EntityEvidence:
			return true
		case domain.EntityStatement:
			if o, ok := corpus.Statement(other.ID); ok && o.DocumentID != st.DocumentID {
				return true
			}
		}
	}
	return false
}
