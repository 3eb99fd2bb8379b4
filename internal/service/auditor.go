package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultAuditInterval = 15 * time.Minute

// Halter is told when the auditor finds drift.
type Halter interface {
	Halt(reason error)
}

// AuditReport counts what one audit pass looked at. Stale records have
// newer inputs than the stored version and are left for the next batch.
type AuditReport struct {
	Checked int `json:"checked"`
	Stale   int `json:"stale"`
	Drifted int `json:"drifted"`
}

// Auditor periodically recomputes stored scores, aggregates and profiles
// and halts processing when a recomputation over unchanged inputs
// disagrees with what was stored.
type Auditor struct {
	stores     Stores
	source     evidence.Source
	scorer     *Scorer
	aggregator *Aggregator
	profiles   *ProfileBuilder
	halter     Halter
	logger     *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewAuditor(stores Stores, source evidence.Source, pipeline *Pipeline, halter Halter, logger *zap.Logger) *Auditor {
	return &Auditor{
		stores:     stores,
		source:     source,
		scorer:     pipeline.Scorer(),
		aggregator: pipeline.Aggregator(),
		profiles:   pipeline.ProfileBuilder(),
		halter:     halter,
		logger:     logger,
		interval:   DefaultAuditInterval,
		stopCh:     make(chan struct{}),
	}
}

func (a *Auditor) SetInterval(d time.Duration) {
	a.interval = d
}

// Start runs audits on a periodic schedule in a background goroutine.
func (a *Auditor) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		a.logger.Info("drift auditor started", zap.Duration("interval", a.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := a.Audit(ctx); err != nil && !errors.Is(err, domain.ErrRecomputationDrift) {
					a.logger.Error("drift audit failed", zap.Error(err))
				}
				cancel()
			case <-a.stopCh:
				a.logger.Info("drift auditor stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the auditor.
func (a *Auditor) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

// Audit runs one full pass. The first drift found halts the processor and
// is returned.
func (a *Auditor) Audit(ctx context.Context) (*AuditReport, error) {
	corpus, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	scores, err := loadScores(ctx, a.stores.Scores)
	if err != nil {
		return nil, err
	}
	classifications, err := loadClassifications(ctx, a.stores.Classifications)
	if err != nil {
		return nil, err
	}
	effective, err := effectiveRelationships(ctx, a.stores.Relationships)
	if err != nil {
		return nil, err
	}
	stored, err := a.stores.Aggregates.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	profiles, err := a.stores.Profiles.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	in := auditInputs{
		corpus:          corpus,
		scores:          scores,
		classifications: classifications,
		effective:       effective,
		aggregates:      make(map[string]*domain.AggregateScore, len(stored)),
		profiles:        make(map[string]*domain.PartyProfile, len(profiles)),
	}
	for i := range stored {
		in.aggregates[string(stored[i].Scope)+"/"+stored[i].ScopeID] = &stored[i]
	}
	for i := range profiles {
		in.profiles[profiles[i].PartyID] = &profiles[i]
	}

	report := &AuditReport{}
	check := func(entity, key, prevHash, nextHash string, same bool) error {
		report.Checked++
		if _, err := reconcile(entity, key, prevHash, nextHash, same); err != nil {
			report.Drifted++
			return err
		}
		if prevHash != nextHash {
			report.Stale++
		}
		return nil
	}

	err = a.audit(in, check)
	if err != nil {
		if errors.Is(err, domain.ErrRecomputationDrift) {
			a.logger.Error("recomputation drift detected", zap.Error(err))
			a.halter.Halt(err)
		}
		return report, err
	}
	a.logger.Info("drift audit completed",
		zap.Int("checked", report.Checked),
		zap.Int("stale", report.Stale))
	return report, nil
}

type auditInputs struct {
	corpus          *evidence.Corpus
	scores          ScoreSet
	classifications ClassificationSet
	effective       []domain.Relationship
	aggregates      map[string]*domain.AggregateScore
	profiles        map[string]*domain.PartyProfile
}

type auditCheck func(entity, key, prevHash, nextHash string, same bool) error

func (a *Auditor) audit(in auditInputs, check auditCheck) error {
	corpus, scores := in.corpus, in.scores
	for _, st := range corpus.Statements() {
		prev, ok := scores[st.ID]
		if !ok {
			continue
		}
		rec := a.scorer.Score(st, corpus)
		if err := check("score", st.ID.String(), prev.InputHash, rec.InputHash, prev.SameValues(rec)); err != nil {
			return err
		}
	}

	compare := func(agg *domain.AggregateScore) error {
		if agg == nil {
			return nil
		}
		key := string(agg.Scope) + "/" + agg.ScopeID
		prev, ok := in.aggregates[key]
		if !ok {
			return nil
		}
		return check("aggregate", key, prev.InputHash, agg.InputHash, prev.SameValues(agg))
	}

	docAggs := make(map[uuid.UUID]*domain.AggregateScore)
	for _, d := range corpus.Documents() {
		if err := compare(a.aggregator.Document(d, corpus, scores)); err != nil {
			return err
		}
		if prev, ok := in.aggregates[string(domain.ScopeDocument)+"/"+d.ID.String()]; ok {
			docAggs[d.ID] = prev
		}
	}
	for _, f := range corpus.Filings() {
		if err := compare(a.aggregator.Filing(f, corpus, scores, docAggs, in.effective)); err != nil {
			return err
		}
	}
	for _, party := range corpus.Speakers() {
		if err := compare(a.aggregator.Party(party, corpus, scores)); err != nil {
			return err
		}
	}

	for _, party := range corpus.Speakers() {
		prev, ok := in.profiles[party]
		profile := a.profiles.Build(party, corpus, scores, in.classifications)
		if !ok || profile == nil {
			continue
		}
		if err := check("profile", party, prev.InputHash, profile.InputHash, prev.SameValues(profile)); err != nil {
			return err
		}
	}
	return nil
}
