package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GenerateReport(ctx context.Context, req api.GenerateReportRequest) ([]api.BaseReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.BaseReport), args.Error(1)
}

func (m *mockBackend) GetDowntime(ctx context.Context, req api.SectionRequest) (*api.DowntimeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.DowntimeResponse), args.Error(1)
}

func (m *mockBackend) GetMTBF(ctx context.Context, req api.SectionRequest) (*api.MTBFResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.MTBFResponse), args.Error(1)
}

func (m *mockBackend) GetMTTR(ctx context.Context, req api.SectionRequest) (*api.MTTRResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.MTTRResponse), args.Error(1)
}

type recordingListener struct {
	mu     sync.Mutex
	events []domain.SectionEvent
}

func (l *recordingListener) SectionReady(_ context.Context, ev domain.SectionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordingListener) Events() []domain.SectionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SectionEvent(nil), l.events...)
}

func baseReport(process string) api.BaseReport {
	return api.BaseReport{
		Process:    process,
		Report:     "- 공정 요약: " + process,
		Labels:     []string{"09:15", "09:45", "10:05"},
		Available:  []float64{1, 1, 0, 1},
		Failures:   []int{2, 1, 3},
		Production: &api.Production{Input: 100, Output: 90, Rate: 90},
	}
}

func waitSettled(t *testing.T, coll *Collection) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, coll.Wait(ctx))
}

var allOptions = domain.ReportOptions{
	Availability: true,
	Production:   true,
	Downtime:     true,
	FailureCount: true,
	MTBF:         true,
	MTTR:         true,
}

func TestAggregator_Generate_EmptySelection(t *testing.T) {
	backend := new(mockBackend)
	agg := NewAggregator("s1", backend, nil, DefaultConfig())

	coll, err := agg.Generate(context.Background(), nil, domain.TimeRange{Token: "1h"}, allOptions)

	require.Error(t, err)
	assert.Nil(t, coll)
	assert.ErrorIs(t, err, domain.ErrNoProcessSelected)
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, backend.Calls, 0)
}

func TestAggregator_Generate_InvalidProcessIDs(t *testing.T) {
	tests := []struct {
		name      string
		processes []string
	}{
		{name: "empty id", processes: []string{"P1", ""}},
		{name: "blank id", processes: []string{"  "}},
		{name: "comma in id", processes: []string{"A,B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(mockBackend)
			agg := NewAggregator("s1", backend, nil, DefaultConfig())

			coll, err := agg.Generate(context.Background(), tt.processes, domain.TimeRange{Token: "1h"}, allOptions)

			require.Error(t, err)
			assert.Nil(t, coll)
			assert.ErrorIs(t, err, domain.ErrInvalidProcess)
			assert.True(t, domain.IsValidation(err))
			assert.Len(t, backend.Calls, 0)
		})
	}
}

func TestAggregator_Generate_FetchCount(t *testing.T) {
	tests := []struct {
		name      string
		processes []string
		options   domain.ReportOptions
		perSource int
	}{
		{name: "base only", processes: []string{"P1", "P2"}, options: domain.ReportOptions{}, perSource: 0},
		{name: "inline sections only", processes: []string{"P1"}, options: domain.ReportOptions{Availability: true, Production: true, FailureCount: true}, perSource: 0},
		{name: "all sections", processes: []string{"P1", "P2", "P3"}, options: allOptions, perSource: 1},
		{name: "mtbf only", processes: []string{"P1", "P2"}, options: domain.ReportOptions{MTBF: true}, perSource: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(mockBackend)
			var records []api.BaseReport
			for _, p := range tt.processes {
				records = append(records, baseReport(p))
			}
			backend.On("GenerateReport", mock.Anything, mock.Anything).Return(records, nil)
			backend.On("GetDowntime", mock.Anything, mock.Anything).Return(&api.DowntimeResponse{}, nil).Maybe()
			backend.On("GetMTBF", mock.Anything, mock.Anything).Return(&api.MTBFResponse{}, nil).Maybe()
			backend.On("GetMTTR", mock.Anything, mock.Anything).Return(&api.MTTRResponse{}, nil).Maybe()

			agg := NewAggregator("s1", backend, nil, DefaultConfig())
			coll, err := agg.Generate(context.Background(), tt.processes, domain.TimeRange{Token: "1h"}, tt.options)
			require.NoError(t, err)
			waitSettled(t, coll)

			supplemental := len(tt.processes) * len(tt.options.SupplementalSections())
			assert.Len(t, backend.Calls, 1+supplemental)
			backend.AssertNumberOfCalls(t, "GenerateReport", 1)
			if tt.options.Downtime {
				backend.AssertNumberOfCalls(t, "GetDowntime", len(tt.processes))
			}
			if tt.options.MTBF {
				backend.AssertNumberOfCalls(t, "GetMTBF", len(tt.processes))
			}
			if tt.options.MTTR {
				backend.AssertNumberOfCalls(t, "GetMTTR", len(tt.processes))
			}
			assert.Equal(t, domain.StateSettled, coll.State())
		})
	}
}

func TestAggregator_Generate_MergesSections(t *testing.T) {
	backend := new(mockBackend)
	rng := domain.TimeRange{Start: "2025-04-10T10:00:00+09:00", End: "2025-04-10T18:00:00+09:00"}

	backend.On("GenerateReport", mock.Anything, api.GenerateReportRequest{
		Processes: []string{"P2", "P1"},
		Range:     rng.String(),
		Options:   api.ReportOptions{Availability: true, Production: true, Downtime: true, FailureCount: true, MTBF: true, MTTR: true},
	}).Return([]api.BaseReport{baseReport("P1"), baseReport("P2"), baseReport("P9")}, nil)
	backend.On("GetDowntime", mock.Anything, mock.Anything).Return(&api.DowntimeResponse{FailureTotal: 12.5}, nil)
	backend.On("GetMTBF", mock.Anything, mock.Anything).Return(&api.MTBFResponse{MTBFMinutes: 42, FailureCount: 3}, nil)
	backend.On("GetMTTR", mock.Anything, mock.Anything).Return(&api.MTTRResponse{MTTRMinutes: 7.5, RepairCount: 2}, nil)

	listener := &recordingListener{}
	agg := NewAggregator("s1", backend, listener, DefaultConfig())

	coll, err := agg.Generate(context.Background(), []string{"P2", "P1"}, rng, allOptions)
	require.NoError(t, err)
	waitSettled(t, coll)

	snap := coll.Snapshot()
	require.Len(t, snap.Reports, 2)
	assert.Equal(t, []string{"P2", "P1"}, snap.Processes())
	assert.Empty(t, snap.Warnings)

	p2 := snap.Reports[0]
	assert.Equal(t, "- 공정 요약: P2", p2.Narrative)
	assert.Equal(t, rng, p2.Range)
	require.NotNil(t, p2.Availability)
	assert.Equal(t, 75, p2.Availability.Percent)
	require.NotNil(t, p2.FailureCount)
	assert.Equal(t, []domain.HourBucket{{Label: "10시대", Count: 3}}, p2.FailureCount.Hourly)
	require.NotNil(t, p2.Downtime)
	assert.Equal(t, 12.5, p2.Downtime.FailureTotal)
	require.NotNil(t, p2.MTBF)
	assert.Equal(t, 42.0, p2.MTBF.Minutes)
	require.NotNil(t, p2.MTTR)
	assert.Equal(t, 2, p2.MTTR.RepairCount)

	// 3 inline + 3 supplemental sections per process
	events := listener.Events()
	assert.Len(t, events, 12)
	for _, ev := range events {
		assert.Equal(t, coll.ID, ev.CollectionID)
		assert.Equal(t, coll.Generation, ev.Generation)
		assert.NoError(t, ev.Err)
	}
}

func TestAggregator_Generate_PartialSectionFailure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil)
	backend.On("GetMTBF", mock.Anything, mock.Anything).Return(nil, errors.New("upstream timeout"))
	backend.On("GetMTTR", mock.Anything, mock.Anything).Return(&api.MTTRResponse{MTTRMinutes: 5}, nil)

	listener := &recordingListener{}
	agg := NewAggregator("s1", backend, listener, DefaultConfig())
	opts := domain.ReportOptions{Availability: true, Production: true, MTBF: true, MTTR: true}

	coll, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "3h"}, opts)
	require.NoError(t, err)
	waitSettled(t, coll)

	rep, ok := coll.Report("P1")
	require.True(t, ok)
	assert.NotEmpty(t, rep.Narrative)
	assert.NotNil(t, rep.Availability)
	assert.NotNil(t, rep.Production)
	assert.NotNil(t, rep.MTTR)
	assert.Nil(t, rep.MTBF)

	warnings := coll.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "P1", warnings[0].Process)
	assert.Equal(t, domain.SectionMTBF, warnings[0].Section)
	assert.Contains(t, warnings[0].Message, "upstream timeout")

	var failed []domain.SectionEvent
	for _, ev := range listener.Events() {
		if ev.Err != nil {
			failed = append(failed, ev)
		}
	}
	require.Len(t, failed, 1)
	var perr *domain.PartialSectionError
	require.True(t, errors.As(failed[0].Err, &perr))
	assert.Equal(t, domain.SectionMTBF, perr.Section)
}

func TestAggregator_Generate_SectionTimeout(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil)
	backend.On("GetMTTR", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	agg := NewAggregator("s1", backend, nil, Config{RequestTimeout: 20 * time.Millisecond})
	coll, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "1h"}, domain.ReportOptions{MTTR: true})
	require.NoError(t, err)
	waitSettled(t, coll)

	rep, _ := coll.Report("P1")
	assert.Nil(t, rep.MTTR)
	require.Len(t, coll.Warnings(), 1)
	assert.Contains(t, coll.Warnings()[0].Message, "timed out")
}

func TestAggregator_Generate_BaseFailure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil).Once()

	agg := NewAggregator("s1", backend, nil, DefaultConfig())

	coll, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "1h"}, domain.ReportOptions{})
	require.Error(t, err)
	assert.Nil(t, coll)
	assert.True(t, domain.IsNetwork(err))
	assert.Contains(t, err.Error(), "connection refused")

	coll, err = agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "1h"}, domain.ReportOptions{})
	require.NoError(t, err)
	waitSettled(t, coll)
	assert.Equal(t, uint64(2), coll.Generation)
}

func TestAggregator_Generate_MissingProcess(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil)
	backend.On("GetMTBF", mock.Anything, api.SectionRequest{Process: "P1", Range: "1h"}).Return(&api.MTBFResponse{}, nil)

	agg := NewAggregator("s1", backend, nil, DefaultConfig())
	coll, err := agg.Generate(context.Background(), []string{"P1", "P2"}, domain.TimeRange{Token: "1h"}, domain.ReportOptions{MTBF: true})
	require.NoError(t, err)
	waitSettled(t, coll)

	backend.AssertNumberOfCalls(t, "GetMTBF", 1)
	p2, ok := coll.Report("P2")
	require.True(t, ok)
	assert.Empty(t, p2.Narrative)
	require.Len(t, coll.Warnings(), 1)
	assert.Equal(t, "P2", coll.Warnings()[0].Process)
}

func TestAggregator_Generate_DiscardsStaleSections(t *testing.T) {
	backend := new(mockBackend)
	release := make(chan struct{})

	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil)
	backend.On("GetMTBF", mock.Anything, api.SectionRequest{Process: "P1", Range: "1h"}).
		Run(func(mock.Arguments) { <-release }).
		Return(&api.MTBFResponse{MTBFMinutes: 1}, nil)
	backend.On("GetMTBF", mock.Anything, api.SectionRequest{Process: "P1", Range: "3h"}).
		Return(&api.MTBFResponse{MTBFMinutes: 3}, nil)

	listener := &recordingListener{}
	agg := NewAggregator("s1", backend, listener, DefaultConfig())
	opts := domain.ReportOptions{MTBF: true}

	first, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "1h"}, opts)
	require.NoError(t, err)

	second, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "3h"}, opts)
	require.NoError(t, err)
	waitSettled(t, second)

	close(release)
	waitSettled(t, first)

	stale, _ := first.Report("P1")
	assert.Nil(t, stale.MTBF)
	assert.Equal(t, []domain.SectionWarning{
		{Process: "P1", Section: domain.SectionMTBF, Message: supersededMessage},
	}, first.Warnings())
	assert.Empty(t, second.Warnings())
	current, _ := second.Report("P1")
	require.NotNil(t, current.MTBF)
	assert.Equal(t, 3.0, current.MTBF.Minutes)

	for _, ev := range listener.Events() {
		assert.Equal(t, second.Generation, ev.Generation)
	}
}

func TestAggregator_Generate_StateMachine(t *testing.T) {
	backend := new(mockBackend)
	release := make(chan struct{})
	backend.On("GenerateReport", mock.Anything, mock.Anything).Return([]api.BaseReport{baseReport("P1")}, nil)
	backend.On("GetDowntime", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&api.DowntimeResponse{}, nil)

	agg := NewAggregator("s1", backend, nil, DefaultConfig())
	coll, err := agg.Generate(context.Background(), []string{"P1"}, domain.TimeRange{Token: "1h"}, domain.ReportOptions{Downtime: true})
	require.NoError(t, err)

	assert.Equal(t, domain.StateSupplementPending, coll.State())
	select {
	case <-coll.Done():
		t.Fatal("collection settled before its supplements resolved")
	default:
	}

	close(release)
	waitSettled(t, coll)
	assert.Equal(t, domain.StateSettled, coll.State())
}
