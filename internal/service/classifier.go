package service

import (
	"sort"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Classifier evaluates the rule table against a scored, correlated
// statement. It only ever proposes candidates.
type Classifier struct {
	logger *zap.Logger

	Rules domain.RuleTable
}

func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{
		logger: logger,
		Rules:  domain.RuleTableV1,
	}
}

// Classify returns an unsaved classification. relationships must be the
// effective relationships touching the statement. Rules that need evidence
// are deferred when the score has no usable evidence (none at all, or
// indicators that cancel out); the deferred rules are reported as a single
// insufficient_evidence candidate. Candidates drawn from a low-confidence
// score for other reasons are marked LowConfidence.
func (c *Classifier) Classify(st *domain.Statement, score *domain.ScoreRecord, relationships []domain.Relationship, events map[uuid.UUID]*domain.Event) *domain.ClassificationResult {
	in := domain.RuleInput{
		Statement:     st,
		Score:         score,
		Relationships: relationships,
		Events:        events,
	}
	res := &domain.ClassificationResult{
		StatementID:      st.ID,
		SpeakerID:        st.SpeakerID,
		RuleTableVersion: c.Rules.Version,
		Candidates:       []domain.ViolationCandidate{},
	}

	issue := score.EvidenceIssue()
	var deferred []string
	for _, rule := range c.Rules.Ordered() {
		if rule.RequiresEvidence && issue != nil {
			deferred = append(deferred, rule.ID)
			continue
		}
		m, ok := rule.Predicate(in)
		if !ok {
			continue
		}
		rels := append([]uuid.UUID(nil), m.Relationships...)
		sort.Slice(rels, func(i, j int) bool { return rels[i].String() < rels[j].String() })
		res.Candidates = append(res.Candidates, domain.ViolationCandidate{
			Tag:           rule.Tag,
			RuleID:        rule.ID,
			Confidence:    domain.Clamp(m.Confidence),
			ScoreID:       score.ID,
			Relationships: rels,
			LowConfidence: score.LowConfidence,
		})
	}
	if len(deferred) > 0 {
		res.InsufficientEvidence = true
		res.Candidates = append([]domain.ViolationCandidate{{
			Tag:           domain.TagInsufficientEvidence,
			RuleID:        deferred[0],
			ScoreID:       score.ID,
			DeferredRules: deferred,
			Reason:        issue.Error(),
		}}, res.Candidates...)
	}

	res.InputHash = classificationHash(c.Rules.Version, st, score, relationships, events)
	if len(res.Candidates) > 0 {
		c.logger.Debug("violation candidates proposed",
			zap.String("statement_id", st.ID.String()),
			zap.Int("candidates", len(res.Candidates)),
			zap.Bool("insufficient_evidence", res.InsufficientEvidence))
	}
	return res
}

func classificationHash(rulesVersion string, st *domain.Statement, score *domain.ScoreRecord, relationships []domain.Relationship, events map[uuid.UUID]*domain.Event) string {
	digests := make([]relationshipDigest, 0, len(relationships))
	var eventKeys []string
	for _, r := range relationships {
		digests = append(digests, relationshipDigest{r.ID.String(), string(r.Kind), r.Strength, r.Primary})
		for _, ref := range []domain.EntityRef{r.Source, r.Target} {
			if e, ok := events[ref.ID]; ok && ref.Type == domain.EntityEvent {
				eventKeys = append(eventKeys, versionKey(e.ID.String(), e.Version))
			}
		}
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].ID < digests[j].ID })
	sort.Strings(eventKeys)
	return domain.InputHash(struct {
		Rules         string               `json:"rules"`
		Statement     string               `json:"statement"`
		Version       int                  `json:"version"`
		Score         string               `json:"score"`
		ScoreHash     string               `json:"score_hash"`
		Relationships []relationshipDigest `json:"relationships"`
		Events        []string             `json:"events"`
	}{rulesVersion, st.ID.String(), st.Version, score.ID.String(), score.InputHash, digests, eventKeys})
}

// FeedEntry is one violation candidate in the review feed.
type FeedEntry struct {
	StatementID      uuid.UUID                 `json:"statement_id"`
	SpeakerID        string                    `json:"speaker_id"`
	Classification   uuid.UUID                 `json:"classification_id"`
	ClassifiedAt     time.Time                 `json:"classified_at"`
	RuleTableVersion string                    `json:"rule_table_version"`
	Candidate        domain.ViolationCandidate `json:"candidate"`
}

// ViolationFeed flattens classifications into candidate entries, newest
// statement first.
func ViolationFeed(results []domain.ClassificationResult, tag domain.ViolationTag) []FeedEntry {
	var out []FeedEntry
	for _, r := range results {
		for _, c := range r.Candidates {
			if c.Tag == domain.TagInsufficientEvidence || (tag != "" && c.Tag != tag) {
				continue
			}
			out = append(out, FeedEntry{
				StatementID:      r.StatementID,
				SpeakerID:        r.SpeakerID,
				Classification:   r.ID,
				ClassifiedAt:     r.CreatedAt,
				RuleTableVersion: r.RuleTableVersion,
				Candidate:        c,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ClassifiedAt.Equal(out[j].ClassifiedAt) {
			return out[i].ClassifiedAt.After(out[j].ClassifiedAt)
		}
		return out[i].StatementID.String() < out[j].StatementID.String()
	})
	return out
}
