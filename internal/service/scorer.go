package service

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultIndicatorStep            = 400.0
	DefaultPublicRecordMultiplier   = 1.5
	DefaultVerifiedEventCredibility = 80
	DefaultAdmissionKnowledge       = 600
	DefaultPriorStatementKnowledge  = 400
	DefaultEventKnowledge           = 500
	DefaultTimingWindow             = 72 * time.Hour
	DefaultTimingPenalty            = 300
	DefaultConcealmentPenalty       = 350
	DefaultForumAbusePenalty        = 350
	DefaultEmergencyWindow          = 30 * 24 * time.Hour
	DefaultContextDecayDays         = 30.0
	DefaultSupportingContextCeiling = 400.0
	DefaultContradictingContextCeil = 1000.0
	DefaultUnreliableEvidenceFactor = 0.6
	DefaultLegalBase                = 200
	DefaultReliedUponWeight         = 600
	DefaultOathWeight               = 100
	DefaultSwornKindWeight          = 100
)

// Scorer computes the six dimensional scores of a statement. Score is a pure
// function of the statement, the corpus snapshot and the exported parameters
// below; the parameters are part of every input hash.
type Scorer struct {
	logger *zap.Logger

	Weights                  domain.CompositeWeights
	IndicatorStep            float64
	PublicRecordMultiplier   float64
	VerifiedEventCredibility int
	AdmissionKnowledge       int
	PriorStatementKnowledge  int
	EventKnowledge           int
	TimingWindow             time.Duration
	TimingPenalty            int
	ConcealmentPenalty       int
	ForumAbusePenalty        int
	EmergencyWindow          time.Duration
	ContextDecayDays         float64
	SupportingContextCeiling float64
	ContradictingContextCeil float64
	UnreliableEvidenceFactor float64
	LegalBase                int
	ReliedUponWeight         int
	OathWeight               int
	SwornKindWeight          int
}

func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{
		logger:                   logger,
		Weights:                  domain.WeightsV1,
		IndicatorStep:            DefaultIndicatorStep,
		PublicRecordMultiplier:   DefaultPublicRecordMultiplier,
		VerifiedEventCredibility: DefaultVerifiedEventCredibility,
		AdmissionKnowledge:       DefaultAdmissionKnowledge,
		PriorStatementKnowledge:  DefaultPriorStatementKnowledge,
		EventKnowledge:           DefaultEventKnowledge,
		TimingWindow:             DefaultTimingWindow,
		TimingPenalty:            DefaultTimingPenalty,
		ConcealmentPenalty:       DefaultConcealmentPenalty,
		ForumAbusePenalty:        DefaultForumAbusePenalty,
		EmergencyWindow:          DefaultEmergencyWindow,
		ContextDecayDays:         DefaultContextDecayDays,
		SupportingContextCeiling: DefaultSupportingContextCeiling,
		ContradictingContextCeil: DefaultContradictingContextCeil,
		UnreliableEvidenceFactor: DefaultUnreliableEvidenceFactor,
		LegalBase:                DefaultLegalBase,
		ReliedUponWeight:         DefaultReliedUponWeight,
		OathWeight:               DefaultOathWeight,
		SwornKindWeight:          DefaultSwornKindWeight,
	}
}

// scoredEvidence is one indicator as seen from the statement being scored.
// Indicators on a matching timeline event count for or against the statement
// depending on whether the event's fact agrees with it.
type scoredEvidence struct {
	Key          string `json:"key"`
	Supports     bool   `json:"supports"`
	Credibility  int    `json:"credibility"`
	PublicRecord bool   `json:"public_record"`
	Reliable     bool   `json:"reliable"`
}

// scoringInputs is the slice of the corpus a statement's score depends on.
type scoringInputs struct {
	priors     []*domain.Statement
	events     []*domain.Event
	adverse    []*domain.Event
	evidence   []scoredEvidence
	outOfRange bool
}

func (s *Scorer) gather(st *domain.Statement, c *evidence.Corpus) scoringInputs {
	var in scoringInputs
	for _, p := range c.StatementsBySpeaker(st.SpeakerID) {
		if p.ID != st.ID && c.SameSubject(p, st) {
			in.priors = append(in.priors, p)
		}
	}
	for _, e := range c.Events() {
		if c.AboutEvent(st, e) {
			in.events = append(in.events, e)
		}
		if e.AdverseToParty(st.SpeakerID) {
			in.adverse = append(in.adverse, e)
		}
	}

	direct := make(map[string]bool)
	for _, ind := range c.IndicatorsFor(st.Ref()) {
		cred, ok := clampCredibility(ind.Credibility)
		if !ok {
			in.outOfRange = true
		}
		key := ind.ID.String()
		direct[key] = true
		in.evidence = append(in.evidence, scoredEvidence{
			Key:          key,
			Supports:     ind.Stance == domain.StanceSupports,
			Credibility:  cred,
			PublicRecord: ind.PublicRecord,
			Reliable:     ind.Reliable(),
		})
	}

	asserts := !st.Negated
	for _, e := range in.events {
		fact, known := e.Fact()
		if !known {
			continue
		}
		agrees := fact == asserts
		var backing []*domain.EvidenceIndicator
		for _, ind := range c.IndicatorsFor(e.Ref()) {
			if ind.Stance == domain.StanceSupports {
				backing = append(backing, ind)
			}
		}
		if len(backing) == 0 {
			in.evidence = append(in.evidence, scoredEvidence{
				Key:         "event:" + e.ID.String(),
				Supports:    agrees,
				Credibility: s.VerifiedEventCredibility,
				Reliable:    true,
			})
			continue
		}
		for _, ind := range backing {
			key := ind.ID.String()
			if direct[key] {
				continue
			}
			direct[key] = true
			cred, ok := clampCredibility(ind.Credibility)
			if !ok {
				in.outOfRange = true
			}
			in.evidence = append(in.evidence, scoredEvidence{
				Key:          key,
				Supports:     agrees,
				Credibility:  cred,
				PublicRecord: ind.PublicRecord,
				Reliable:     ind.Reliable(),
			})
		}
	}
	sort.Slice(in.evidence, func(i, j int) bool { return in.evidence[i].Key < in.evidence[j].Key })
	return in
}

func clampCredibility(v int) (int, bool) {
	if v < domain.MinCredibility {
		return domain.MinCredibility, false
	}
	if v > domain.MaxCredibility {
		return domain.MaxCredibility, false
	}
	return v, true
}

// Score produces an unsaved ScoreRecord for the latest version of st.
func (s *Scorer) Score(st *domain.Statement, c *evidence.Corpus) *domain.ScoreRecord {
	in := s.gather(st, c)

	truth, interval, conflicting := s.truthLie(in.evidence)
	breakdown := s.badFaith(st, in)
	dims := domain.Dimensions{
		TruthLie:        truth,
		Intent:          s.intent(st, in),
		BadFaith:        domain.Clamp(breakdown.Timing + breakdown.Concealment + breakdown.ForumAbuse),
		Context:         s.context(st, in),
		EvidenceQuality: s.evidenceQuality(in.evidence),
		LegalWeight:     s.legalWeight(st),
	}

	var flags []domain.ScoreFlag
	assumption := false
	if len(in.evidence) == 0 {
		flags = append(flags, domain.FlagInsufficientEvidence)
	}
	if conflicting {
		flags = append(flags, domain.FlagConflictingIndicators)
	}
	if st.AssertedAt == nil {
		flags = append(flags, domain.FlagMissingAssertedDate)
		assumption = true
	}
	if st.SubjectKey() == "" && len(st.Embedding) == 0 {
		flags = append(flags, domain.FlagMissingSubject)
		assumption = true
	}
	if in.outOfRange {
		flags = append(flags, domain.FlagCredibilityOutOfRange)
		assumption = true
	}
	low := len(in.evidence) == 0 || conflicting || assumption

	confidence := domain.ConfidenceMedium
	switch {
	case low:
		confidence = domain.ConfidenceLow
	case len(in.evidence) >= 3:
		confidence = domain.ConfidenceHigh
	}

	rec := &domain.ScoreRecord{
		StatementID:      st.ID,
		StatementVersion: st.Version,
		WeightsVersion:   s.Weights.Version,
		Dimensions:       dims,
		Composite:        s.Weights.Combine(dims.Projections()),
		TruthInterval:    interval,
		Confidence:       confidence,
		LowConfidence:    low,
		AssumptionBased:  assumption,
		Flags:            flags,
		BadFaith:         breakdown,
		IndicatorCount:   len(in.evidence),
	}
	rec.InputHash = s.inputHash(st, in)

	s.logger.Debug("statement scored",
		zap.String("statement_id", st.ID.String()),
		zap.Int("truth_lie", dims.TruthLie),
		zap.Int("composite", rec.Composite),
		zap.Bool("low_confidence", low))
	return rec
}

// truthLie starts from neutral and moves by each indicator's weighted vote,
// scaled by how credible the evidence is on average.
func (s *Scorer) truthLie(ev []scoredEvidence) (int, domain.Interval, bool) {
	if len(ev) == 0 {
		return domain.NeutralScore, domain.Interval{Low: domain.MinScore, High: domain.MaxScore}, false
	}

	votes := make([]float64, 0, len(ev))
	creds := make([]float64, 0, len(ev))
	var support, contradict float64
	for _, e := range ev {
		w := float64(e.Credibility) / 100 * s.IndicatorStep
		if e.PublicRecord {
			w *= s.PublicRecordMultiplier
		}
		if e.Supports {
			support += w
			votes = append(votes, w)
		} else {
			contradict += w
			votes = append(votes, -w)
		}
		creds = append(creds, float64(e.Credibility)/100)
	}

	half := float64(domain.NeutralScore) / math.Sqrt(float64(len(ev)+1))
	conflicting := support > 0 && contradict > 0 && math.Abs(support-contradict) < 1e-9

	var truth int
	if conflicting {
		truth = domain.NeutralScore
		half = math.Min(2*half, float64(domain.NeutralScore))
	} else {
		delta := floats.Sum(votes) * stat.Mean(creds, nil)
		truth = domain.ClampFloat(float64(domain.NeutralScore) + delta)
	}

	spread := int(math.Round(half))
	return truth, domain.Interval{
		Low:  domain.Clamp(truth - spread),
		High: domain.Clamp(truth + spread),
	}, conflicting
}

// intent measures what the speaker knew, independent of whether the
// statement turned out true.
func (s *Scorer) intent(st *domain.Statement, in scoringInputs) int {
	var admission, prior, event bool
	for _, p := range in.priors {
		if !p.Before(st) || p.Negated == st.Negated {
			continue
		}
		if p.Kind == domain.StatementAdmission {
			admission = true
		} else {
			prior = true
		}
	}
	if st.AssertedAt != nil {
		asserts := !st.Negated
		for _, e := range in.events {
			fact, known := e.Fact()
			if !known || fact == asserts || !e.InvolvesParty(st.SpeakerID) {
				continue
			}
			if e.KnownAt().Before(*st.AssertedAt) {
				event = true
			}
		}
	}

	total := 0
	if admission {
		total += s.AdmissionKnowledge
	}
	if prior {
		total += s.PriorStatementKnowledge
	}
	if event {
		total += s.EventKnowledge
	}
	return domain.Clamp(total)
}

func (s *Scorer) badFaith(st *domain.Statement, in scoringInputs) domain.BadFaithBreakdown {
	var b domain.BadFaithBreakdown

	if st.AssertedAt != nil && s.TimingWindow > 0 {
		for _, e := range in.adverse {
			dt := st.AssertedAt.Sub(e.OccurredAt)
			if dt < 0 || dt > s.TimingWindow {
				continue
			}
			closeness := 1 - float64(dt)/float64(s.TimingWindow)
			b.Timing = max(b.Timing, int(math.Round(float64(s.TimingPenalty)*closeness)))
		}
	}

	for _, p := range in.priors {
		if p.Before(st) && p.Negated != st.Negated {
			b.Concealment = s.ConcealmentPenalty
			break
		}
	}

	if st.Kind == domain.StatementRequest && st.Urgent && !s.emergencySupported(st, in) {
		b.ForumAbuse = s.ForumAbusePenalty
	}
	return b
}

// emergencySupported reports whether an urgent request is backed by a
// supporting indicator or by an emergency on the subject shortly before it.
func (s *Scorer) emergencySupported(st *domain.Statement, in scoringInputs) bool {
	for _, e := range in.evidence {
		if e.Supports {
			return true
		}
	}
	for _, e := range in.events {
		if !e.Emergency || e.Status == domain.StatusDisproven {
			continue
		}
		if st.AssertedAt == nil {
			return true
		}
		dt := st.AssertedAt.Sub(e.OccurredAt)
		if dt >= 0 && dt <= s.EmergencyWindow {
			return true
		}
	}
	return false
}

// context is the strongest decayed link to an established event on the
// statement's subject. Contradicting events weigh more than agreeing ones.
func (s *Scorer) context(st *domain.Statement, in scoringInputs) int {
	if st.AssertedAt == nil || s.ContextDecayDays <= 0 {
		return 0
	}
	asserts := !st.Negated
	best := 0.0
	for _, e := range in.events {
		fact, known := e.Fact()
		if !known {
			continue
		}
		days := st.AssertedAt.Sub(e.KnownAt()).Hours() / 24
		if days < 0 {
			continue
		}
		ceiling := s.ContradictingContextCeil
		if fact == asserts {
			ceiling = s.SupportingContextCeiling
		}
		best = math.Max(best, ceiling*math.Exp(-days/s.ContextDecayDays))
	}
	return domain.ClampFloat(best)
}

func (s *Scorer) evidenceQuality(ev []scoredEvidence) int {
	if len(ev) == 0 {
		return 0
	}
	values := make([]float64, len(ev))
	for i, e := range ev {
		factor := s.UnreliableEvidenceFactor
		if e.Reliable || e.PublicRecord {
			factor = 1
		}
		values[i] = float64(e.Credibility) * 10 * factor
	}
	return domain.ClampFloat(stat.Mean(values, nil))
}

func (s *Scorer) legalWeight(st *domain.Statement) int {
	w := s.LegalBase
	if st.ReliedUpon {
		w += s.ReliedUponWeight
	}
	if st.UnderOath {
		w += s.OathWeight
	}
	if st.Kind.Sworn() {
		w += s.SwornKindWeight
	}
	return domain.Clamp(w)
}

func versionKey(id string, version int) string {
	return id + "@" + strconv.Itoa(version)
}

func (s *Scorer) inputHash(st *domain.Statement, in scoringInputs) string {
	var related []string
	for _, p := range in.priors {
		related = append(related, versionKey("statement:"+p.ID.String(), p.Version))
	}
	seen := make(map[string]bool)
	for _, group := range [][]*domain.Event{in.events, in.adverse} {
		for _, e := range group {
			k := versionKey("event:"+e.ID.String(), e.Version)
			if !seen[k] {
				seen[k] = true
				related = append(related, k)
			}
		}
	}
	sort.Strings(related)

	subject := *st
	subject.CreatedAt = time.Time{}
	return domain.InputHash(struct {
		Params    *Scorer          `json:"params"`
		Statement domain.Statement `json:"statement"`
		Evidence  []scoredEvidence `json:"evidence"`
		Related   []string         `json:"related"`
	}{s, subject, in.evidence, related})
}
