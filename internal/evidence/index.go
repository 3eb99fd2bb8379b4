package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Source produces corpus snapshots.
type Source interface {
	Snapshot(ctx context.Context) (*Corpus, error)
}

// Index loads snapshots from the stores.
type Index struct {
	documents  domain.DocumentStore
	statements domain.StatementStore
	events     domain.EventStore
	evidence   domain.EvidenceStore
	similarity float64
}

func NewIndex(documents domain.DocumentStore, statements domain.StatementStore, events domain.EventStore, evidence domain.EvidenceStore, similarity float64) *Index {
	return &Index{
		documents:  documents,
		statements: statements,
		events:     events,
		evidence:   evidence,
		similarity: similarity,
	}
}

func (i *Index) Snapshot(ctx context.Context) (*Corpus, error) {
	docs, err := i.documents.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	filings, err := i.documents.ListFilings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	statements, err := i.statements.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	events, err := i.events.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	indicators, err := i.evidence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return NewCorpus(Records{
		Documents:           docs,
		Filings:             filings,
		Statements:          statements,
		Events:              events,
		Indicators:          indicators,
		SimilarityThreshold: i.similarity,
	}), nil
}

const snapshotKey = "corpus"

// CachedIndex memoizes snapshots for read paths until the TTL expires or a
// writer calls Invalidate.
type CachedIndex struct {
	source Source
	cache  *gocache.Cache
	logger *zap.Logger
}

func NewCachedIndex(source Source, ttl time.Duration, logger *zap.Logger) *CachedIndex {
	return &CachedIndex{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (c *CachedIndex) Snapshot(ctx context.Context) (*Corpus, error) {
	if v, found := c.cache.Get(snapshotKey); found {
		return v.(*Corpus), nil
	}
	corpus, err := c.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(snapshotKey, corpus)
	c.logger.Debug("corpus snapshot loaded",
		zap.Int("statements", len(corpus.Statements())),
		zap.Int("events", len(corpus.Events())))
	return corpus, nil
}

// Invalidate drops the cached snapshot so the next read sees new writes.
func (c *CachedIndex) Invalidate() {
	c.cache.Delete(snapshotKey)
}
