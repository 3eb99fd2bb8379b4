package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultScoringWorkers = 4
	DefaultChunkSize      = 50
)

// Pipeline runs a batch through ingestion, scoring, correlation,
// classification, aggregation and profile rebuilding. Every stage writes new
// versions only; a run that fails part way can be repeated with the same
// batch id and picks up from its checkpoints.
type Pipeline struct {
	stores     Stores
	index      *evidence.Index
	scorer     *Scorer
	correlator *Correlator
	aggregator *Aggregator
	classifier *Classifier
	profiles   *ProfileBuilder
	logger     *zap.Logger

	Workers   int
	ChunkSize int

	// Cache, when set, is invalidated after every run that reached the stores.
	Cache *evidence.CachedIndex
}

func NewPipeline(stores Stores, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		stores:     stores,
		index:      evidence.NewIndex(stores.Documents, stores.Statements, stores.Events, stores.Evidence, evidence.DefaultSimilarityThreshold),
		scorer:     NewScorer(logger),
		correlator: NewCorrelator(logger),
		aggregator: NewAggregator(logger),
		classifier: NewClassifier(logger),
		profiles:   NewProfileBuilder(logger),
		logger:     logger,
		Workers:    DefaultScoringWorkers,
		ChunkSize:  DefaultChunkSize,
	}
}

func (p *Pipeline) Scorer() *Scorer                 { return p.scorer }
func (p *Pipeline) Correlator() *Correlator         { return p.correlator }
func (p *Pipeline) Aggregator() *Aggregator         { return p.aggregator }
func (p *Pipeline) Classifier() *Classifier         { return p.classifier }
func (p *Pipeline) ProfileBuilder() *ProfileBuilder { return p.profiles }
func (p *Pipeline) Index() *evidence.Index          { return p.index }

// batchRun carries per-run state between stages.
type batchRun struct {
	batch    *domain.Batch
	report   *domain.BatchReport
	accepted acceptedRecords
	corpus   *evidence.Corpus
	affected []*domain.Statement
	scores   ScoreSet
}

type acceptedRecords struct {
	documents  []uuid.UUID
	filings    []uuid.UUID
	statements []uuid.UUID
	events     []uuid.UUID
	indicators []*domain.EvidenceIndicator
}

// RunBatch processes one batch end to end. The returned report is always
// non-nil; on failure it carries the error as well.
func (p *Pipeline) RunBatch(ctx context.Context, batch *domain.Batch) (*domain.BatchReport, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	run := &batchRun{
		batch: batch,
		report: &domain.BatchReport{
			BatchID:   batch.ID,
			Status:    domain.BatchRunning,
			StartedAt: time.Now().UTC(),
		},
	}

	err := p.run(ctx, run)
	finished := time.Now().UTC()
	run.report.FinishedAt = &finished
	if p.Cache != nil {
		p.Cache.Invalidate()
	}

	switch {
	case err == nil:
		run.report.Status = domain.BatchCompleted
		p.logger.Info("batch completed",
			zap.String("batch_id", batch.ID.String()),
			zap.Int("accepted", run.report.Accepted),
			zap.Int("rejected", len(run.report.Rejected)),
			zap.Int("affected", run.report.Affected),
			zap.Int("scored", run.report.Scored),
			zap.Int("relationships", run.report.RelationshipsWritten))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		run.report.Status = domain.BatchCancelled
		run.report.Error = err.Error()
		p.logger.Warn("batch cancelled", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	default:
		run.report.Status = domain.BatchFailed
		run.report.Error = err.Error()
		p.logger.Error("batch failed", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
	return run.report, err
}

func (p *Pipeline) run(ctx context.Context, run *batchRun) error {
	if err := p.ingest(ctx, run); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	corpus, err := p.index.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	run.corpus = corpus
	run.affected = affectedStatements(corpus, run.accepted)
	run.report.Affected = len(run.affected)

	if err := p.scoreStage(ctx, run); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	if err := p.correlateStage(ctx, run); err != nil {
		return fmt.Errorf("correlate: %w", err)
	}
	effective, err := effectiveRelationships(ctx, p.stores.Relationships)
	if err != nil {
		return err
	}
	if err := p.classifyStage(ctx, run, effective); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if err := p.aggregateStage(ctx, run, effective); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if err := p.profileStage(ctx, run); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}

// Refresh reclassifies the given statements against the current effective
// relationships and rebuilds their aggregates and profiles. Scores and
// relationships are left as they are.
func (p *Pipeline) Refresh(ctx context.Context, statementIDs []uuid.UUID) (*domain.BatchReport, error) {
	run := &batchRun{
		batch: &domain.Batch{ID: uuid.New()},
		report: &domain.BatchReport{
			Status:    domain.BatchRunning,
			StartedAt: time.Now().UTC(),
		},
	}
	run.report.BatchID = run.batch.ID

	err := func() error {
		corpus, err := p.index.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		run.corpus = corpus
		for _, id := range statementIDs {
			if st, ok := corpus.Statement(id); ok {
				run.affected = append(run.affected, st)
			}
		}
		run.report.Affected = len(run.affected)
		if run.scores, err = loadScores(ctx, p.stores.Scores); err != nil {
			return err
		}
		effective, err := effectiveRelationships(ctx, p.stores.Relationships)
		if err != nil {
			return err
		}
		if err := p.classifyStage(ctx, run, effective); err != nil {
			return fmt.Errorf("classify: %w", err)
		}
		if err := p.aggregateStage(ctx, run, effective); err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
		return p.profileStage(ctx, run)
	}()

	finished := time.Now().UTC()
	run.report.FinishedAt = &finished
	if p.Cache != nil {
		p.Cache.Invalidate()
	}
	if err != nil {
		run.report.Status = domain.BatchFailed
		run.report.Error = err.Error()
		return run.report, err
	}
	run.report.Status = domain.BatchCompleted
	return run.report, nil
}

func (p *Pipeline) reject(run *batchRun, entity string, id uuid.UUID, err error) {
	run.report.Rejected = append(run.report.Rejected, domain.RejectedRecord{Entity: entity, ID: id, Reason: err.Error()})
	p.logger.Warn("record rejected",
		zap.String("batch_id", run.batch.ID.String()),
		zap.String("entity", entity),
		zap.String("id", id.String()),
		zap.Error(err))
}

// ingest validates and stores the batch. Malformed records are reported and
// skipped; store failures abort the run.
func (p *Pipeline) ingest(ctx context.Context, run *batchRun) error {
	b := run.batch
	for i := range b.Filings {
		f := &b.Filings[i]
		if err := f.Validate(); err != nil {
			p.reject(run, "filing", f.ID, err)
			continue
		}
		if err := p.stores.Documents.SaveFiling(ctx, f); err != nil {
			return fmt.Errorf("save filing %s: %w", f.ID, err)
		}
		run.accepted.filings = append(run.accepted.filings, f.ID)
	}

	for i := range b.Documents {
		d := &b.Documents[i]
		err := d.Validate()
		if err == nil && d.FilingID != nil {
			err = p.requireFiling(ctx, *d.FilingID, d.ID)
		}
		if err != nil {
			p.reject(run, "document", d.ID, err)
			continue
		}
		if err := p.stores.Documents.SaveDocument(ctx, d); err != nil {
			return fmt.Errorf("save document %s: %w", d.ID, err)
		}
		run.accepted.documents = append(run.accepted.documents, d.ID)
	}

	for i := range b.Events {
		e := &b.Events[i]
		if err := e.Validate(); err != nil {
			p.reject(run, "event", e.ID, err)
			continue
		}
		if _, err := p.stores.Events.Append(ctx, e); err != nil {
			return fmt.Errorf("append event %s: %w", e.ID, err)
		}
		run.accepted.events = append(run.accepted.events, e.ID)
	}

	for i := range b.Statements {
		s := &b.Statements[i]
		err := s.Validate()
		if err == nil {
			err = p.requireDocument(ctx, s.DocumentID, s.ID)
		}
		if err != nil {
			p.reject(run, "statement", s.ID, err)
			continue
		}
		if _, err := p.stores.Statements.Append(ctx, s); err != nil {
			return fmt.Errorf("append statement %s: %w", s.ID, err)
		}
		run.accepted.statements = append(run.accepted.statements, s.ID)
	}

	for i := range b.Indicators {
		ind := &b.Indicators[i]
		err := ind.Validate()
		if err == nil {
			err = p.requireTarget(ctx, ind)
		}
		if err != nil {
			p.reject(run, "evidence_indicator", ind.ID, err)
			continue
		}
		if _, err := p.stores.Evidence.Create(ctx, ind); err != nil {
			return fmt.Errorf("create evidence %s: %w", ind.ID, err)
		}
		run.accepted.indicators = append(run.accepted.indicators, ind)
	}

	run.report.Accepted = len(run.accepted.filings) + len(run.accepted.documents) + len(run.accepted.events) +
		len(run.accepted.statements) + len(run.accepted.indicators)
	return nil
}

func missingReference(entity string, id uuid.UUID, field string) error {
	return &domain.MalformedInputError{Entity: entity, ID: id, Fields: []string{field}}
}

// lookup turns a store miss into a malformed-input error for the record
// that referenced it.
func lookup(err error, entity string, id uuid.UUID, field string) error {
	if errors.Is(err, store.ErrNotFound) {
		return missingReference(entity, id, field)
	}
	return err
}

func (p *Pipeline) requireFiling(ctx context.Context, filingID, documentID uuid.UUID) error {
	_, err := p.stores.Documents.GetFiling(ctx, filingID)
	return lookup(err, "document", documentID, "filing_id")
}

func (p *Pipeline) requireDocument(ctx context.Context, documentID, statementID uuid.UUID) error {
	_, err := p.stores.Documents.GetDocument(ctx, documentID)
	return lookup(err, "statement", statementID, "document_id")
}

func (p *Pipeline) requireTarget(ctx context.Context, ind *domain.EvidenceIndicator) error {
	var err error
	switch ind.Target.Type {
	case domain.EntityStatement:
		_, err = p.stores.Statements.GetLatest(ctx, ind.Target.ID)
	case domain.EntityEvent:
		_, err = p.stores.Events.GetLatest(ctx, ind.Target.ID)
	default:
		return missingReference("evidence_indicator", ind.ID, "target")
	}
	if err := lookup(err, "evidence_indicator", ind.ID, "target"); err != nil {
		return err
	}
	if ind.DocumentedEventID != nil {
		_, err = p.stores.Events.GetLatest(ctx, *ind.DocumentedEventID)
		return lookup(err, "evidence_indicator", ind.ID, "documented_event_id")
	}
	return nil
}

// affectedStatements is every statement whose scores or relationships can
// change because of the batch, in corpus order.
func affectedStatements(c *evidence.Corpus, acc acceptedRecords) []*domain.Statement {
	set := make(map[uuid.UUID]bool)
	var events []*domain.Event
	for _, id := range acc.events {
		if e, ok := c.Event(id); ok {
			events = append(events, e)
		}
	}
	var seeds []*domain.Statement
	for _, id := range acc.statements {
		if s, ok := c.Statement(id); ok {
			seeds = append(seeds, s)
			set[id] = true
		}
	}
	for _, ind := range acc.indicators {
		switch ind.Target.Type {
		case domain.EntityStatement:
			set[ind.Target.ID] = true
		case domain.EntityEvent:
			if e, ok := c.Event(ind.Target.ID); ok {
				events = append(events, e)
			}
		}
		if ind.DocumentedEventID != nil {
			if e, ok := c.Event(*ind.DocumentedEventID); ok {
				events = append(events, e)
			}
		}
	}

	var out []*domain.Statement
	for _, s := range c.Statements() {
		hit := set[s.ID]
		for _, seed := range seeds {
			if hit {
				break
			}
			hit = c.SameSubject(s, seed)
		}
		for _, e := range events {
			if hit {
				break
			}
			hit = c.AboutEvent(s, e) || e.AdverseToParty(s.SpeakerID)
		}
		if hit {
			out = append(out, s)
		}
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}

func (p *Pipeline) checkpoint(ctx context.Context, batchID uuid.UUID, stage domain.Stage) (*domain.Checkpoint, error) {
	cp, err := p.stores.Checkpoints.Get(ctx, batchID, stage)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil {
		cp = &domain.Checkpoint{BatchID: batchID, Stage: stage}
	}
	return cp, nil
}

func pending(statements []*domain.Statement, done map[uuid.UUID]bool) (todo []*domain.Statement, skipped int) {
	for _, s := range statements {
		if done[s.ID] {
			skipped++
			continue
		}
		todo = append(todo, s)
	}
	return todo, skipped
}

// scoreStage scores the affected statements in parallel, one checkpointed
// chunk at a time.
func (p *Pipeline) scoreStage(ctx context.Context, run *batchRun) error {
	cp, err := p.checkpoint(ctx, run.batch.ID, domain.StageScored)
	if err != nil {
		return err
	}
	todo, skipped := pending(run.affected, cp.CompletedSet())
	run.report.Resumed = skipped

	for _, part := range chunk(todo, p.ChunkSize) {
		records := make([]*domain.ScoreRecord, len(part))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, p.Workers))
		for i, st := range part {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				records[i] = p.scorer.Score(st, run.corpus)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, rec := range records {
			written, err := p.saveScore(ctx, rec)
			if err != nil {
				return err
			}
			if written {
				run.report.Scored++
				if err := p.advance(ctx, run.batch.ID, part[i].ID, domain.StageScored); err != nil {
					return err
				}
			}
			cp.Completed = append(cp.Completed, part[i].ID)
		}
		if err := p.stores.Checkpoints.Save(ctx, cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	scores, err := loadScores(ctx, p.stores.Scores)
	if err != nil {
		return err
	}
	run.scores = scores
	return nil
}

func loadScores(ctx context.Context, scores domain.ScoreStore) (ScoreSet, error) {
	all, err := scores.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	set := make(ScoreSet, len(all))
	for i := range all {
		set[all[i].StatementID] = &all[i]
	}
	return set, nil
}

// reconcile decides whether a recomputed record needs a new version. Equal
// input hashes with different values mean the computation is not
// reproducible.
func reconcile(entity, key, prevHash, nextHash string, same bool) (bool, error) {
	if prevHash != nextHash {
		return true, nil
	}
	if same {
		return false, nil
	}
	return false, &domain.DriftError{Entity: entity, Key: key, InputHash: nextHash}
}

func (p *Pipeline) saveScore(ctx context.Context, rec *domain.ScoreRecord) (bool, error) {
	prev, err := p.stores.Scores.Latest(ctx, rec.StatementID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("latest score: %w", err)
	}
	if prev != nil {
		write, err := reconcile("score", rec.StatementID.String(), prev.InputHash, rec.InputHash, prev.SameValues(rec))
		if err != nil || !write {
			*rec = *prev
			return false, err
		}
	}
	if err := p.stores.Scores.Append(ctx, rec); err != nil {
		return false, fmt.Errorf("append score: %w", err)
	}
	return true, nil
}

// advance moves a statement forward through the stage machine. Statements
// already at or past the target stage are left alone.
func (p *Pipeline) advance(ctx context.Context, batchID, statementID uuid.UUID, to domain.Stage) error {
	from, err := p.stores.Stages.Current(ctx, statementID)
	if err != nil {
		return fmt.Errorf("current stage: %w", err)
	}
	if to != domain.StageScored && stageRank(from) >= stageRank(to) {
		return nil
	}
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("statement %s: %s -> %s: %w", statementID, from, to, domain.ErrInvalidTransition)
	}
	return p.stores.Stages.Record(ctx, &domain.StageTransition{
		StatementID: statementID,
		BatchID:     batchID,
		From:        from,
		To:          to,
	})
}

func stageRank(s domain.Stage) int {
	switch s {
	case domain.StageScored:
		return 1
	case domain.StageCorrelated:
		return 2
	case domain.StageClassified:
		return 3
	}
	return 0
}

// correlateStage discovers relationships chunk by chunk, keeping the
// candidates in the checkpoint, then breaks ties across the whole affected
// set and writes what changed.
func (p *Pipeline) correlateStage(ctx context.Context, run *batchRun) error {
	cp, err := p.checkpoint(ctx, run.batch.ID, domain.StageCorrelated)
	if err != nil {
		return err
	}
	todo, _ := pending(run.affected, cp.CompletedSet())

	for _, part := range chunk(todo, p.ChunkSize) {
		found := make([][]domain.Relationship, len(part))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, p.Workers))
		for i, st := range part {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				found[i] = p.correlator.CorrelateStatement(st, run.corpus)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, rels := range found {
			cp.Relationships = append(cp.Relationships, rels...)
			cp.Completed = append(cp.Completed, part[i].ID)
		}
		if err := p.stores.Checkpoints.Save(ctx, cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	affected := make(map[domain.EntityRef]bool, len(run.affected))
	for _, st := range run.affected {
		affected[st.Ref()] = true
	}
	current, err := p.stores.Relationships.ListCurrent(ctx)
	if err != nil {
		return fmt.Errorf("list relationships: %w", err)
	}

	cs := make(candidates)
	for _, r := range cp.Relationships {
		cs.add(r)
	}
	// Gaps raised by statements outside the batch are not recomputed here but
	// still compete for primary on their pair.
	var stale []domain.Relationship
	for _, r := range current {
		if !r.Active || !(affected[r.Source] || affected[r.Target]) {
			continue
		}
		if _, ok := cs[r.IdentityKey()]; ok {
			continue
		}
		if r.Kind == domain.RelTimelineGap && !affected[r.Source] {
			cs.add(r)
			continue
		}
		stale = append(stale, r)
	}

	for _, r := range ResolveTies(cs.list()) {
		written, err := p.stores.Relationships.Append(ctx, &r)
		if err != nil {
			return fmt.Errorf("append relationship: %w", err)
		}
		if written {
			run.report.RelationshipsWritten++
		}
	}
	for _, r := range stale {
		r.Active, r.Primary = false, false
		written, err := p.stores.Relationships.Append(ctx, &r)
		if err != nil {
			return fmt.Errorf("retire relationship: %w", err)
		}
		if written {
			run.report.RelationshipsWritten++
		}
	}

	for _, st := range run.affected {
		if err := p.advance(ctx, run.batch.ID, st.ID, domain.StageCorrelated); err != nil {
			return err
		}
	}
	return nil
}

func effectiveRelationships(ctx context.Context, rels domain.RelationshipStore) ([]domain.Relationship, error) {
	current, err := rels.ListCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	overrides, err := rels.ListOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return domain.ApplyOverrides(current, overrides), nil
}

func relationshipsByEntity(rels []domain.Relationship) map[domain.EntityRef][]domain.Relationship {
	out := make(map[domain.EntityRef][]domain.Relationship)
	for _, r := range rels {
		out[r.Source] = append(out[r.Source], r)
		if r.Target != r.Source {
			out[r.Target] = append(out[r.Target], r)
		}
	}
	return out
}

func (p *Pipeline) classifyStage(ctx context.Context, run *batchRun, effective []domain.Relationship) error {
	byEntity := relationshipsByEntity(effective)
	events := run.corpus.EventsByID()
	for _, st := range run.affected {
		if err := ctx.Err(); err != nil {
			return err
		}
		score, ok := run.scores[st.ID]
		if !ok {
			continue
		}
		stage, err := p.stores.Stages.Current(ctx, st.ID)
		if err != nil {
			return fmt.Errorf("current stage: %w", err)
		}
		if stageRank(stage) < stageRank(domain.StageCorrelated) {
			p.logger.Warn("statement not correlated yet, classification skipped",
				zap.String("statement_id", st.ID.String()),
				zap.String("stage", string(stage)))
			continue
		}
		res := p.classifier.Classify(st, score, byEntity[st.Ref()], events)
		written, err := p.saveClassification(ctx, res)
		if err != nil {
			return err
		}
		if written {
			run.report.Classified++
		}
		if err := p.advance(ctx, run.batch.ID, st.ID, domain.StageClassified); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) saveClassification(ctx context.Context, res *domain.ClassificationResult) (bool, error) {
	prev, err := p.stores.Classifications.Latest(ctx, res.StatementID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("latest classification: %w", err)
	}
	if prev != nil {
		write, err := reconcile("classification", res.StatementID.String(), prev.InputHash, res.InputHash, prev.SameValues(res))
		if err != nil || !write {
			return false, err
		}
	}
	if err := p.stores.Classifications.Append(ctx, res); err != nil {
		return false, fmt.Errorf("append classification: %w", err)
	}
	return true, nil
}

// aggregateStage recomputes the documents, filings and parties the affected
// statements roll up into.
func (p *Pipeline) aggregateStage(ctx context.Context, run *batchRun, effective []domain.Relationship) error {
	c := run.corpus
	docSet := make(map[uuid.UUID]bool)
	partySet := make(map[string]bool)
	for _, st := range run.affected {
		docSet[st.DocumentID] = true
		partySet[st.SpeakerID] = true
	}
	for _, id := range run.accepted.documents {
		docSet[id] = true
	}
	filingSet := make(map[uuid.UUID]bool)
	for _, id := range run.accepted.filings {
		filingSet[id] = true
	}

	docAggs := make(map[uuid.UUID]*domain.AggregateScore)
	for _, d := range c.Documents() {
		if !docSet[d.ID] {
			continue
		}
		if d.FilingID != nil {
			filingSet[*d.FilingID] = true
		}
		agg := p.aggregator.Document(d, c, run.scores)
		if agg == nil {
			continue
		}
		if err := p.saveAggregate(ctx, run, agg); err != nil {
			return err
		}
		docAggs[d.ID] = agg
	}

	for _, f := range c.Filings() {
		if !filingSet[f.ID] {
			continue
		}
		for _, d := range c.DocumentsInFiling(f.ID) {
			if _, ok := docAggs[d.ID]; ok {
				continue
			}
			agg, err := p.stores.Aggregates.Latest(ctx, domain.ScopeDocument, d.ID.String())
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("latest document aggregate: %w", err)
			}
			docAggs[d.ID] = agg
		}
		agg := p.aggregator.Filing(f, c, run.scores, docAggs, effective)
		if agg == nil {
			continue
		}
		if err := p.saveAggregate(ctx, run, agg); err != nil {
			return err
		}
	}

	for _, party := range c.Speakers() {
		if !partySet[party] {
			continue
		}
		agg := p.aggregator.Party(party, c, run.scores)
		if agg == nil {
			continue
		}
		if err := p.saveAggregate(ctx, run, agg); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) saveAggregate(ctx context.Context, run *batchRun, agg *domain.AggregateScore) error {
	prev, err := p.stores.Aggregates.Latest(ctx, agg.Scope, agg.ScopeID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("latest aggregate: %w", err)
	}
	if prev != nil {
		write, err := reconcile("aggregate", string(agg.Scope)+"/"+agg.ScopeID, prev.InputHash, agg.InputHash, prev.SameValues(agg))
		if err != nil || !write {
			*agg = *prev
			return err
		}
	}
	if err := p.stores.Aggregates.Append(ctx, agg); err != nil {
		return fmt.Errorf("append aggregate: %w", err)
	}
	run.report.AggregatesWritten++
	return nil
}

// profileStage rebuilds the profile of every party with an affected
// statement.
func (p *Pipeline) profileStage(ctx context.Context, run *batchRun) error {
	classifications, err := loadClassifications(ctx, p.stores.Classifications)
	if err != nil {
		return err
	}
	parties := make(map[string]bool)
	for _, st := range run.affected {
		parties[st.SpeakerID] = true
	}
	for _, party := range run.corpus.Speakers() {
		if !parties[party] {
			continue
		}
		profile := p.profiles.Build(party, run.corpus, run.scores, classifications)
		if profile == nil {
			continue
		}
		written, err := p.saveProfile(ctx, profile)
		if err != nil {
			return err
		}
		if written {
			run.report.ProfilesWritten++
		}
	}
	return nil
}

func loadClassifications(ctx context.Context, classifications domain.ClassificationStore) (ClassificationSet, error) {
	all, err := classifications.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	set := make(ClassificationSet, len(all))
	for i := range all {
		set[all[i].StatementID] = &all[i]
	}
	return set, nil
}

func (p *Pipeline) saveProfile(ctx context.Context, profile *domain.PartyProfile) (bool, error) {
	prev, err := p.stores.Profiles.Latest(ctx, profile.PartyID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("latest profile: %w", err)
	}
	if prev != nil {
		write, err := reconcile("profile", profile.PartyID, prev.InputHash, profile.InputHash, prev.SameValues(profile))
		if err != nil || !write {
			return false, err
		}
	}
	if err := p.stores.Profiles.Append(ctx, profile); err != nil {
		return false, fmt.Errorf("append profile: %w", err)
	}
	return true, nil
}
