package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
)

// Memory bundles in-process implementations of every store. It backs the
// CLI and the tests; the server uses the Postgres stores.
type Memory struct {
	Documents       *MemoryDocumentStore
	Statements      *MemoryStatementStore
	Events          *MemoryEventStore
	Evidence        *MemoryEvidenceStore
	Relationships   *MemoryRelationshipStore
	Scores          *MemoryScoreStore
	Aggregates      *MemoryAggregateStore
	Classifications *MemoryClassificationStore
	Profiles        *MemoryProfileStore
	Stages          *MemoryStageStore
	Checkpoints     *MemoryCheckpointStore
}

func NewMemory() *Memory {
	return &Memory{
		Documents:       &MemoryDocumentStore{docs: map[uuid.UUID]domain.Document{}, filings: map[uuid.UUID]domain.Filing{}},
		Statements:      &MemoryStatementStore{log: newVersionLog[domain.Statement]()},
		Events:          &MemoryEventStore{log: newVersionLog[domain.Event]()},
		Evidence:        &MemoryEvidenceStore{rows: map[uuid.UUID]domain.EvidenceIndicator{}},
		Relationships:   &MemoryRelationshipStore{log: newVersionLog[domain.Relationship]()},
		Scores:          &MemoryScoreStore{log: newVersionLog[domain.ScoreRecord]()},
		Aggregates:      &MemoryAggregateStore{log: newVersionLog[domain.AggregateScore]()},
		Classifications: &MemoryClassificationStore{log: newVersionLog[domain.ClassificationResult]()},
		Profiles:        &MemoryProfileStore{log: newVersionLog[domain.PartyProfile]()},
		Stages:          &MemoryStageStore{rows: map[uuid.UUID][]domain.StageTransition{}},
		Checkpoints:     &MemoryCheckpointStore{rows: map[string]domain.Checkpoint{}},
	}
}

// versionLog keeps every version of every key, oldest first.
type versionLog[T any] struct {
	mu   sync.RWMutex
	rows map[string][]T
}

func newVersionLog[T any]() *versionLog[T] {
	return &versionLog[T]{rows: make(map[string][]T)}
}

// appendWith calls next with the current latest version (if any) and
// appends what it returns unless it declines.
func (l *versionLog[T]) appendWith(key string, next func(prev *T) (T, bool)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	versions := l.rows[key]
	var prev *T
	if len(versions) > 0 {
		p := versions[len(versions)-1]
		prev = &p
	}
	v, ok := next(prev)
	if !ok {
		return false
	}
	l.rows[key] = append(versions, v)
	return true
}

func (l *versionLog[T]) latest(key string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	versions := l.rows[key]
	if len(versions) == 0 {
		var zero T
		return zero, false
	}
	return versions[len(versions)-1], true
}

func (l *versionLog[T]) history(key string) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.rows[key])
}

// latestAll returns the latest version of every key ordered by key.
func (l *versionLog[T]) latestAll() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.rows))
	for k := range l.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		versions := l.rows[k]
		out = append(out, versions[len(versions)-1])
	}
	return out
}

func now() time.Time { return time.Now().UTC() }

type MemoryDocumentStore struct {
	mu      sync.RWMutex
	docs    map[uuid.UUID]domain.Document
	filings map[uuid.UUID]domain.Filing
}

func (s *MemoryDocumentStore) SaveDocument(_ context.Context, d *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[d.ID]; ok {
		d.CreatedAt = existing.CreatedAt
		return nil
	}
	d.CreatedAt = now()
	s.docs[d.ID] = *d
	return nil
}

func (s *MemoryDocumentStore) GetDocument(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryDocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryDocumentStore) SaveFiling(_ context.Context, f *domain.Filing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.filings[f.ID]; ok {
		f.CreatedAt = existing.CreatedAt
		return nil
	}
	f.CreatedAt = now()
	s.filings[f.ID] = *f
	return nil
}

func (s *MemoryDocumentStore) GetFiling(_ context.Context, id uuid.UUID) (*domain.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemoryDocumentStore) ListFilings(_ context.Context) ([]domain.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Filing, 0, len(s.filings))
	for _, f := range s.filings {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type MemoryStatementStore struct {
	log *versionLog[domain.Statement]
}

func (s *MemoryStatementStore) Append(_ context.Context, st *domain.Statement) (bool, error) {
	written := s.log.appendWith(st.ID.String(), func(prev *domain.Statement) (domain.Statement, bool) {
		if prev != nil && prev.SameContent(st) {
			st.Version, st.PreviousVersion, st.CreatedAt = prev.Version, prev.PreviousVersion, prev.CreatedAt
			return domain.Statement{}, false
		}
		st.Version, st.PreviousVersion = 1, 0
		if prev != nil {
			st.Version, st.PreviousVersion = prev.Version+1, prev.Version
		}
		st.CreatedAt = now()
		return *st, true
	})
	return written, nil
}

func (s *MemoryStatementStore) GetLatest(_ context.Context, id uuid.UUID) (*domain.Statement, error) {
	st, ok := s.log.latest(id.String())
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (s *MemoryStatementStore) ListLatest(_ context.Context) ([]domain.Statement, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryStatementStore) History(_ context.Context, id uuid.UUID) ([]domain.Statement, error) {
	return s.log.history(id.String()), nil
}

type MemoryEventStore struct {
	log *versionLog[domain.Event]
}

func (s *MemoryEventStore) Append(_ context.Context, e *domain.Event) (bool, error) {
	written := s.log.appendWith(e.ID.String(), func(prev *domain.Event) (domain.Event, bool) {
		if prev != nil && prev.SameContent(e) {
			e.Version, e.PreviousVersion, e.CreatedAt = prev.Version, prev.PreviousVersion, prev.CreatedAt
			return domain.Event{}, false
		}
		e.Version, e.PreviousVersion = 1, 0
		if prev != nil {
			e.Version, e.PreviousVersion = prev.Version+1, prev.Version
		}
		e.CreatedAt = now()
		return *e, true
	})
	return written, nil
}

func (s *MemoryEventStore) GetLatest(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	e, ok := s.log.latest(id.String())
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryEventStore) ListLatest(_ context.Context) ([]domain.Event, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryEventStore) History(_ context.Context, id uuid.UUID) ([]domain.Event, error) {
	return s.log.history(id.String()), nil
}

type MemoryEvidenceStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.EvidenceIndicator
}

func (s *MemoryEvidenceStore) Create(_ context.Context, i *domain.EvidenceIndicator) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[i.ID]; ok {
		return false, nil
	}
	if i.RecordedAt.IsZero() {
		i.RecordedAt = now()
	}
	s.rows[i.ID] = *i
	return true, nil
}

func (s *MemoryEvidenceStore) Get(_ context.Context, id uuid.UUID) (*domain.EvidenceIndicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &i, nil
}

func (s *MemoryEvidenceStore) List(_ context.Context) ([]domain.EvidenceIndicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EvidenceIndicator, 0, len(s.rows))
	for _, i := range s.rows {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID.String() < out[b].ID.String() })
	return out, nil
}

func (s *MemoryEvidenceStore) ListByTarget(ctx context.Context, target domain.EntityRef) ([]domain.EvidenceIndicator, error) {
	all, _ := s.List(ctx)
	var out []domain.EvidenceIndicator
	for _, i := range all {
		if i.Target == target {
			out = append(out, i)
		}
	}
	return out, nil
}

type MemoryRelationshipStore struct {
	log       *versionLog[domain.Relationship]
	mu        sync.RWMutex
	overrides []domain.RelationshipOverride
}

func (s *MemoryRelationshipStore) Append(_ context.Context, r *domain.Relationship) (bool, error) {
	written := s.log.appendWith(r.ID.String(), func(prev *domain.Relationship) (domain.Relationship, bool) {
		if prev != nil && prev.SameState(r) {
			r.Version, r.CreatedAt = prev.Version, prev.CreatedAt
			return domain.Relationship{}, false
		}
		r.Version = 1
		if prev != nil {
			r.Version = prev.Version + 1
		}
		r.CreatedAt = now()
		return *r, true
	})
	return written, nil
}

func (s *MemoryRelationshipStore) Get(_ context.Context, id uuid.UUID) (*domain.Relationship, error) {
	r, ok := s.log.latest(id.String())
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryRelationshipStore) ListCurrent(_ context.Context) ([]domain.Relationship, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryRelationshipStore) ListByEntity(_ context.Context, ref domain.EntityRef) ([]domain.Relationship, error) {
	var out []domain.Relationship
	for _, r := range s.log.latestAll() {
		if r.Touches(ref) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryRelationshipStore) History(_ context.Context, id uuid.UUID) ([]domain.Relationship, error) {
	return s.log.history(id.String()), nil
}

func (s *MemoryRelationshipStore) CreateOverride(_ context.Context, o *domain.RelationshipOverride) error {
	if _, ok := s.log.latest(o.RelationshipID.String()); !ok {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = now()
	s.overrides = append(s.overrides, *o)
	return nil
}

func (s *MemoryRelationshipStore) ListOverrides(_ context.Context) ([]domain.RelationshipOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.overrides), nil
}

type MemoryScoreStore struct {
	log *versionLog[domain.ScoreRecord]
}

func (s *MemoryScoreStore) Append(_ context.Context, r *domain.ScoreRecord) error {
	s.log.appendWith(r.StatementID.String(), func(prev *domain.ScoreRecord) (domain.ScoreRecord, bool) {
		r.ID = uuid.New()
		r.Version = 1
		if prev != nil {
			r.Version = prev.Version + 1
		}
		r.CreatedAt = now()
		return *r, true
	})
	return nil
}

func (s *MemoryScoreStore) Latest(_ context.Context, statementID uuid.UUID) (*domain.ScoreRecord, error) {
	r, ok := s.log.latest(statementID.String())
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryScoreStore) ListLatest(_ context.Context) ([]domain.ScoreRecord, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryScoreStore) History(_ context.Context, statementID uuid.UUID) ([]domain.ScoreRecord, error) {
	return s.log.history(statementID.String()), nil
}

type MemoryAggregateStore struct {
	log *versionLog[domain.AggregateScore]
}

func aggregateKey(scope domain.ScopeType, scopeID string) string {
	return string(scope) + "/" + scopeID
}

func (s *MemoryAggregateStore) Append(_ context.Context, a *domain.AggregateScore) error {
	s.log.appendWith(aggregateKey(a.Scope, a.ScopeID), func(prev *domain.AggregateScore) (domain.AggregateScore, bool) {
		a.ID = uuid.New()
		a.Version = 1
		if prev != nil {
			a.Version = prev.Version + 1
		}
		a.CreatedAt = now()
		return *a, true
	})
	return nil
}

func (s *MemoryAggregateStore) Latest(_ context.Context, scope domain.ScopeType, scopeID string) (*domain.AggregateScore, error) {
	a, ok := s.log.latest(aggregateKey(scope, scopeID))
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryAggregateStore) ListLatest(_ context.Context) ([]domain.AggregateScore, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryAggregateStore) History(_ context.Context, scope domain.ScopeType, scopeID string) ([]domain.AggregateScore, error) {
	return s.log.history(aggregateKey(scope, scopeID)), nil
}

type MemoryClassificationStore struct {
	log *versionLog[domain.ClassificationResult]
}

func (s *MemoryClassificationStore) Append(_ context.Context, c *domain.ClassificationResult) error {
	s.log.appendWith(c.StatementID.String(), func(prev *domain.ClassificationResult) (domain.ClassificationResult, bool) {
		c.ID = uuid.New()
		c.Version = 1
		if prev != nil {
			c.Version = prev.Version + 1
		}
		c.CreatedAt = now()
		return *c, true
	})
	return nil
}

func (s *MemoryClassificationStore) Latest(_ context.Context, statementID uuid.UUID) (*domain.ClassificationResult, error) {
	c, ok := s.log.latest(statementID.String())
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryClassificationStore) ListLatest(_ context.Context) ([]domain.ClassificationResult, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryClassificationStore) History(_ context.Context, statementID uuid.UUID) ([]domain.ClassificationResult, error) {
	return s.log.history(statementID.String()), nil
}

type MemoryProfileStore struct {
	log *versionLog[domain.PartyProfile]
}

func (s *MemoryProfileStore) Append(_ context.Context, p *domain.PartyProfile) error {
	s.log.appendWith(p.PartyID, func(prev *domain.PartyProfile) (domain.PartyProfile, bool) {
		p.ID = uuid.New()
		p.Version = 1
		if prev != nil {
			p.Version = prev.Version + 1
		}
		p.CreatedAt = now()
		return *p, true
	})
	return nil
}

func (s *MemoryProfileStore) Latest(_ context.Context, partyID string) (*domain.PartyProfile, error) {
	p, ok := s.log.latest(partyID)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryProfileStore) ListLatest(_ context.Context) ([]domain.PartyProfile, error) {
	return s.log.latestAll(), nil
}

func (s *MemoryProfileStore) History(_ context.Context, partyID string) ([]domain.PartyProfile, error) {
	return s.log.history(partyID), nil
}

type MemoryStageStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID][]domain.StageTransition
}

func (s *MemoryStageStore) Record(_ context.Context, t *domain.StageTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.OccurredAt.IsZero() {
		t.OccurredAt = now()
	}
	s.rows[t.StatementID] = append(s.rows[t.StatementID], *t)
	return nil
}

func (s *MemoryStageStore) Current(_ context.Context, statementID uuid.UUID) (domain.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[statementID]
	if len(rows) == 0 {
		return domain.StageUnevaluated, nil
	}
	return rows[len(rows)-1].To, nil
}

func (s *MemoryStageStore) Transitions(_ context.Context, statementID uuid.UUID) ([]domain.StageTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows[statementID]), nil
}

type MemoryCheckpointStore struct {
	mu   sync.RWMutex
	rows map[string]domain.Checkpoint
}

func checkpointKey(batchID uuid.UUID, stage domain.Stage) string {
	return batchID.String() + "/" + string(stage)
}

func (s *MemoryCheckpointStore) Save(_ context.Context, c *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = now()
	cp := *c
	cp.Completed = slices.Clone(c.Completed)
	cp.Relationships = slices.Clone(c.Relationships)
	s.rows[checkpointKey(c.BatchID, c.Stage)] = cp
	return nil
}

func (s *MemoryCheckpointStore) Get(_ context.Context, batchID uuid.UUID, stage domain.Stage) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.rows[checkpointKey(batchID, stage)]
	if !ok {
		return nil, nil
	}
	c.Completed = slices.Clone(c.Completed)
	c.Relationships = slices.Clone(c.Relationships)
	return &c, nil
}

var (
	_ domain.DocumentStore       = (*MemoryDocumentStore)(nil)
	_ domain.StatementStore      = (*MemoryStatementStore)(nil)
	_ domain.EventStore          = (*MemoryEventStore)(nil)
	_ domain.EvidenceStore       = (*MemoryEvidenceStore)(nil)
	_ domain.RelationshipStore   = (*MemoryRelationshipStore)(nil)
	_ domain.ScoreStore          = (*MemoryScoreStore)(nil)
	_ domain.AggregateStore      = (*MemoryAggregateStore)(nil)
	_ domain.ClassificationStore = (*MemoryClassificationStore)(nil)
	_ domain.ProfileStore        = (*MemoryProfileStore)(nil)
	_ domain.StageStore          = (*MemoryStageStore)(nil)
	_ domain.CheckpointStore     = (*MemoryCheckpointStore)(nil)
)
