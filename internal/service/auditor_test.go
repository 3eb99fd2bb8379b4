package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockHalter struct {
	mock.Mock
}

func (m *mockHalter) Halt(reason error) {
	m.Called(reason)
}

func auditedProtectiveOrder(t *testing.T) (*Pipeline, *store.Memory, *protectiveOrder) {
	t.Helper()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()
	_, err := p.RunBatch(context.Background(), po.batch())
	require.NoError(t, err)
	return p, mem, po
}

func TestAuditor_CleanStores(t *testing.T) {
	p, mem, _ := auditedProtectiveOrder(t)
	halter := &mockHalter{}
	a := NewAuditor(MemoryStores(mem), p.index, p, halter, zap.NewNop())

	report, err := a.Audit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, AuditReport{Checked: 7}, *report)
	halter.AssertNotCalled(t, "Halt", mock.Anything)
}

func TestAuditor_StaleRecordsAreNotDrift(t *testing.T) {
	ctx := context.Background()
	p, mem, po := auditedProtectiveOrder(t)
	_, err := mem.Evidence.Create(ctx, &domain.EvidenceIndicator{
		ID:          uuid.New(),
		Target:      po.denial.Ref(),
		Stance:      domain.StanceContradicts,
		Credibility: 90,
		Type:        domain.IndicatorWitness,
	})
	require.NoError(t, err)
	halter := &mockHalter{}
	a := NewAuditor(MemoryStores(mem), p.index, p, halter, zap.NewNop())

	report, err := a.Audit(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Stale, "the denial score and the filing aggregate")
	assert.Zero(t, report.Drifted)
	halter.AssertNotCalled(t, "Halt", mock.Anything)
}

func TestAuditor_TamperedAggregateHalts(t *testing.T) {
	ctx := context.Background()
	p, mem, po := auditedProtectiveOrder(t)
	stored, err := mem.Aggregates.Latest(ctx, domain.ScopeDocument, po.declaration.ID.String())
	require.NoError(t, err)
	tampered := *stored
	tampered.Composite++
	require.NoError(t, mem.Aggregates.Append(ctx, &tampered))

	halter := &mockHalter{}
	halter.On("Halt", mock.MatchedBy(func(err error) bool {
		return errors.Is(err, domain.ErrRecomputationDrift)
	})).Once()
	a := NewAuditor(MemoryStores(mem), p.index, p, halter, zap.NewNop())

	report, err := a.Audit(ctx)

	require.Error(t, err)
	var drift *domain.DriftError
	require.True(t, errors.As(err, &drift))
	assert.Equal(t, "aggregate", drift.Entity)
	assert.Equal(t, 1, report.Drifted)
	halter.AssertExpectations(t)
}

func TestAuditor_HaltsProcessor(t *testing.T) {
	ctx := context.Background()
	p, mem, po := auditedProtectiveOrder(t)
	stored, err := mem.Scores.Latest(ctx, po.admission.ID)
	require.NoError(t, err)
	tampered := *stored
	tampered.Dimensions.Context = 0
	require.NoError(t, mem.Scores.Append(ctx, &tampered))

	proc := NewProcessor(p, 1, zap.NewNop())
	a := NewAuditor(MemoryStores(mem), p.index, p, proc, zap.NewNop())

	_, err = a.Audit(ctx)

	assert.ErrorIs(t, err, domain.ErrRecomputationDrift)
	assert.ErrorIs(t, proc.Halted(), domain.ErrRecomputationDrift)
	_, err = proc.Submit(po.batch())
	assert.ErrorIs(t, err, ErrProcessorHalted)
}
