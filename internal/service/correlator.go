package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"go.uber.org/zap"
)

const (
	DefaultGapWindow                = 30 * 24 * time.Hour
	DefaultPrecedesWindow           = 72 * time.Hour
	DefaultContradictionCredibility = 80
	DefaultPriorGapCredibility      = 60
	DefaultDocumentGapCredibility   = 70
	DefaultSameSpeakerCredibility   = 70
	DefaultSwornCredibilityStep     = 10
	DefaultCorroborationCredibility = 60
	DefaultSameThreadStrength       = 500
	DefaultStrengthCap              = 950
	DefaultReliedUponMateriality    = 1.0
	DefaultOathMateriality          = 0.7
	DefaultBaseMateriality          = 0.5
)

// Correlator discovers typed relationships between statements, events and
// evidence. Like Scorer it is a pure function of its inputs.
type Correlator struct {
	logger *zap.Logger

	GapWindow                time.Duration
	PrecedesWindow           time.Duration
	ContradictionCredibility int
	PriorGapCredibility      int
	DocumentGapCredibility   int
	SameSpeakerCredibility   int
	SwornCredibilityStep     int
	CorroborationCredibility int
	VerifiedEventCredibility int
	SameThreadStrength       int
	StrengthCap              int
	ReliedUponMateriality    float64
	OathMateriality          float64
	BaseMateriality          float64
}

func NewCorrelator(logger *zap.Logger) *Correlator {
	return &Correlator{
		logger:                   logger,
		GapWindow:                DefaultGapWindow,
		PrecedesWindow:           DefaultPrecedesWindow,
		ContradictionCredibility: DefaultContradictionCredibility,
		PriorGapCredibility:      DefaultPriorGapCredibility,
		DocumentGapCredibility:   DefaultDocumentGapCredibility,
		SameSpeakerCredibility:   DefaultSameSpeakerCredibility,
		SwornCredibilityStep:     DefaultSwornCredibilityStep,
		CorroborationCredibility: DefaultCorroborationCredibility,
		VerifiedEventCredibility: DefaultVerifiedEventCredibility,
		SameThreadStrength:       DefaultSameThreadStrength,
		StrengthCap:              DefaultStrengthCap,
		ReliedUponMateriality:    DefaultReliedUponMateriality,
		OathMateriality:          DefaultOathMateriality,
		BaseMateriality:          DefaultBaseMateriality,
	}
}

// candidates collects relationships keyed by identity, keeping the strongest.
type candidates map[string]domain.Relationship

func (cs candidates) add(r domain.Relationship) {
	r.ID = domain.RelationshipID(r.Source, r.Target, r.Kind)
	r.Active = true
	key := r.IdentityKey()
	if prev, ok := cs[key]; ok && prev.Strength >= r.Strength {
		return
	}
	cs[key] = r
}

func (cs candidates) list() []domain.Relationship {
	out := make([]domain.Relationship, 0, len(cs))
	for _, r := range cs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (c *Correlator) materiality(st *domain.Statement) float64 {
	switch {
	case st.ReliedUpon:
		return c.ReliedUponMateriality
	case st.UnderOath:
		return c.OathMateriality
	}
	return c.BaseMateriality
}

// strength converts evidence credibility into relationship strength. Only
// public-record evidence against a relied-upon statement may exceed the cap.
func (c *Correlator) strength(credibility int, public bool, statements ...*domain.Statement) int {
	mat := 0.0
	relied := false
	for _, st := range statements {
		mat = math.Max(mat, c.materiality(st))
		relied = relied || st.ReliedUpon
	}
	s := domain.ClampFloat(float64(credibility) / 100 * mat * 1000)
	if !(public && relied) && s > c.StrengthCap {
		s = c.StrengthCap
	}
	return s
}

// CorrelateStatement returns every relationship the statement takes part in,
// before tie-breaking.
func (c *Correlator) CorrelateStatement(st *domain.Statement, corpus *evidence.Corpus) []domain.Relationship {
	cs := make(candidates)
	c.timelineGap(st, corpus, cs)
	c.eventLinks(st, corpus, cs)
	c.indicatorLinks(st, corpus, cs)
	c.statementLinks(st, corpus, cs)
	c.precedes(st, corpus, cs)
	return cs.list()
}

// timelineGap flags an urgent statement raised with no mention of its
// subject in the preceding window.
func (c *Correlator) timelineGap(st *domain.Statement, corpus *evidence.Corpus, cs candidates) {
	if !st.Urgent || st.AssertedAt == nil {
		return
	}
	asserted := *st.AssertedAt
	windowStart := asserted.Add(-c.GapWindow)

	var latestRef domain.EntityRef
	var latestAt time.Time
	consider := func(ref domain.EntityRef, at time.Time) bool {
		if !at.Before(asserted) {
			return false
		}
		if !at.Before(windowStart) {
			return true
		}
		if latestRef.IsZero() || at.After(latestAt) {
			latestRef, latestAt = ref, at
		}
		return false
	}
	for _, o := range corpus.Statements() {
		if o.ID == st.ID || o.AssertedAt == nil || !corpus.SameSubject(o, st) {
			continue
		}
		if consider(o.Ref(), *o.AssertedAt) {
			return
		}
	}
	for _, e := range corpus.Events() {
		if !corpus.AboutEvent(st, e) {
			continue
		}
		if consider(e.Ref(), e.OccurredAt) {
			return
		}
	}

	if !latestRef.IsZero() {
		cs.add(domain.Relationship{
			Source:      st.Ref(),
			Target:      latestRef,
			Kind:        domain.RelTimelineGap,
			Strength:    c.strength(c.PriorGapCredibility, false, st),
			Directed:    true,
			Explanation: fmt.Sprintf("urgent statement follows %.0f days without mention of the subject", asserted.Sub(latestAt).Hours()/24),
		})
		return
	}
	cs.add(domain.Relationship{
		Source:      st.Ref(),
		Target:      domain.DocumentRef(st.DocumentID),
		Kind:        domain.RelTimelineGap,
		Strength:    c.strength(c.DocumentGapCredibility, false, st),
		Directed:    true,
		Explanation: "urgent statement with no earlier mention of the subject",
	})
}

// eventLinks ties the statement to established events on its subject.
func (c *Correlator) eventLinks(st *domain.Statement, corpus *evidence.Corpus, cs candidates) {
	asserts := !st.Negated
	for _, e := range corpus.Events() {
		if !corpus.AboutEvent(st, e) {
			continue
		}
		fact, known := e.Fact()
		if !known {
			continue
		}
		cred, public := c.VerifiedEventCredibility, false
		var refs []domain.EntityRef
		backed := false
		for _, ind := range corpus.IndicatorsFor(e.Ref()) {
			if ind.Stance != domain.StanceSupports {
				continue
			}
			v, _ := clampCredibility(ind.Credibility)
			if !backed || v > cred {
				cred = v
			}
			backed = true
			public = public || ind.PublicRecord
			refs = append(refs, ind.Ref())
		}

		kind, verb := domain.RelSupports, "agrees with"
		if fact != asserts {
			kind, verb = domain.RelContradicts, "is contradicted by"
		}
		cs.add(domain.Relationship{
			Source:       st.Ref(),
			Target:       e.Ref(),
			Kind:         kind,
			Strength:     c.strength(cred, public, st),
			Directed:     true,
			Explanation:  fmt.Sprintf("statement %s %s event %q", verb, e.Status, e.Description),
			EvidenceRefs: refs,
		})
	}
}

// indicatorLinks turns strong contradicting evidence into relationships,
// pointing at the documented event when the indicator names one.
func (c *Correlator) indicatorLinks(st *domain.Statement, corpus *evidence.Corpus, cs candidates) {
	for _, ind := range corpus.IndicatorsFor(st.Ref()) {
		if ind.Stance != domain.StanceContradicts || ind.Credibility < c.ContradictionCredibility {
			continue
		}
		cred, _ := clampCredibility(ind.Credibility)
		target := ind.Ref()
		if ind.DocumentedEventID != nil {
			if ev := domain.EventRef(*ind.DocumentedEventID); corpus.Exists(ev) {
				target = ev
			}
		}
		cs.add(domain.Relationship{
			Source:       st.Ref(),
			Target:       target,
			Kind:         domain.RelContradicts,
			Strength:     c.strength(cred, ind.PublicRecord, st),
			Directed:     true,
			Explanation:  fmt.Sprintf("%s evidence contradicts the statement", ind.Type),
			EvidenceRefs: []domain.EntityRef{ind.Ref()},
		})
	}
}

// statementLinks relates the statement to other dated statements on the
// same subject, always pointing from the earlier to the later one.
func (c *Correlator) statementLinks(st *domain.Statement, corpus *evidence.Corpus, cs candidates) {
	if st.AssertedAt == nil {
		return
	}
	for _, o := range corpus.Statements() {
		if o.ID == st.ID || o.AssertedAt == nil || o.AssertedAt.Equal(*st.AssertedAt) || !corpus.SameSubject(o, st) {
			continue
		}
		earlier, later := o, st
		if st.Before(o) {
			earlier, later = st, o
		}

		if o.SpeakerID == st.SpeakerID {
			if o.Negated != st.Negated {
				cred := c.SameSpeakerCredibility
				for _, x := range []*domain.Statement{earlier, later} {
					if x.UnderOath {
						cred += c.SwornCredibilityStep
					}
				}
				cs.add(domain.Relationship{
					Source:      earlier.Ref(),
					Target:      later.Ref(),
					Kind:        domain.RelContradicts,
					Strength:    c.strength(cred, false, earlier, later),
					Directed:    true,
					Explanation: "speaker reversed an earlier statement on the same subject",
				})
				continue
			}
			cs.add(domain.Relationship{
				Source:      earlier.Ref(),
				Target:      later.Ref(),
				Kind:        domain.RelSameThread,
				Strength:    c.SameThreadStrength,
				Explanation: "speaker repeated an earlier statement on the same subject",
			})
			continue
		}

		if o.Negated == st.Negated {
			cs.add(domain.Relationship{
				Source:      earlier.Ref(),
				Target:      later.Ref(),
				Kind:        domain.RelSupports,
				Strength:    c.strength(c.CorroborationCredibility, false, earlier, later),
				Directed:    true,
				Explanation: "independent speaker corroborates the statement",
			})
		}
	}
}

// precedes links an adverse event to an urgent statement made shortly after.
func (c *Correlator) precedes(st *domain.Statement, corpus *evidence.Corpus, cs candidates) {
	if !st.Urgent || st.AssertedAt == nil || c.PrecedesWindow <= 0 {
		return
	}
	for _, e := range corpus.Events() {
		if !e.AdverseToParty(st.SpeakerID) {
			continue
		}
		dt := st.AssertedAt.Sub(e.OccurredAt)
		if dt < 0 || dt > c.PrecedesWindow {
			continue
		}
		cred := int(math.Round(100 * (1 - float64(dt)/float64(c.PrecedesWindow))))
		cs.add(domain.Relationship{
			Source:      e.Ref(),
			Target:      st.Ref(),
			Kind:        domain.RelPrecedes,
			Strength:    c.strength(cred, false, st),
			Directed:    true,
			Explanation: fmt.Sprintf("urgent statement made %.0f hours after an adverse event", dt.Hours()),
		})
	}
}

// ResolveTies picks one primary relationship per unordered entity pair: the
// strongest. Relationships of a different kind stay as secondary; same-kind
// duplicates collapse into the primary.
func ResolveTies(rels []domain.Relationship) []domain.Relationship {
	byPair := make(map[string][]domain.Relationship)
	var pairs []string
	for _, r := range rels {
		k := r.PairKey()
		if _, ok := byPair[k]; !ok {
			pairs = append(pairs, k)
		}
		byPair[k] = append(byPair[k], r)
	}
	sort.Strings(pairs)

	var out []domain.Relationship
	for _, k := range pairs {
		group := byPair[k]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Strength != group[j].Strength {
				return group[i].Strength > group[j].Strength
			}
			if group[i].Kind != group[j].Kind {
				return group[i].Kind < group[j].Kind
			}
			return group[i].ID.String() < group[j].ID.String()
		})
		kinds := make(map[domain.RelationshipKind]bool)
		for i, r := range group {
			if kinds[r.Kind] {
				continue
			}
			kinds[r.Kind] = true
			r.Primary = i == 0
			out = append(out, r)
		}
	}
	return out
}
