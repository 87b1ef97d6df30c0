package pit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/errs"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type fakeMacroRepo struct {
	records []domain.ObservationRecord
	err     error
	calls   int
}

func (f *fakeMacroRepo) QueryMacroObservations(ctx context.Context, seriesCode string, start, end domain.Date, asOf time.Time) ([]domain.ObservationRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ObservationRecord
	for _, rec := range f.records {
		if rec.ReleaseTime.After(asOf) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func newTestLoader(repo persistence.Repository) *Loader {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	if loc == nil {
		loc = time.UTC
	}
	return New(repo, loc)
}

func val(v float64) *float64 { return &v }

func TestGetMacroSeriesCensorsByReleaseTime(t *testing.T) {
	asOf := domain.MustParseDate("2026-02-21")
	macro := &fakeMacroRepo{
		records: []domain.ObservationRecord{
			{SeriesID: "IPCA", ObservationDate: domain.MustParseDate("2026-01-31"), Value: val(0.5), ReleaseTime: domain.MustParseDate("2026-02-10").EndOfDay(time.UTC), RevisionNumber: 1},
		},
	}
	loader := newTestLoader(persistence.Repository{MacroObservations: macro})

	points, err := loader.GetMacroSeries(context.Background(), "IPCA", asOf, 60)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.5, *points[0].Value)
}

func TestGetMacroSeriesReplayIsBitIdentical(t *testing.T) {
	asOf := domain.MustParseDate("2026-02-21")
	macro := &fakeMacroRepo{
		records: []domain.ObservationRecord{
			{SeriesID: "IPCA", ObservationDate: domain.MustParseDate("2026-01-31"), Value: val(0.5), ReleaseTime: domain.MustParseDate("2026-02-10").EndOfDay(time.UTC), RevisionNumber: 1},
			{SeriesID: "IPCA", ObservationDate: domain.MustParseDate("2025-12-31"), Value: val(0.4), ReleaseTime: domain.MustParseDate("2026-01-10").EndOfDay(time.UTC), RevisionNumber: 2},
		},
	}
	loader := newTestLoader(persistence.Repository{MacroObservations: macro})

	first, err := loader.GetMacroSeries(context.Background(), "IPCA", asOf, 90)
	require.NoError(t, err)
	second, err := loader.GetMacroSeries(context.Background(), "IPCA", asOf, 90)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetMacroSeriesRepositoryErrorIsRetryable(t *testing.T) {
	macro := &fakeMacroRepo{err: errors.New("connection reset")}
	loader := newTestLoader(persistence.Repository{MacroObservations: macro})

	_, err := loader.GetMacroSeries(context.Background(), "IPCA", domain.MustParseDate("2026-02-21"), 30)
	require.Error(t, err)
	assert.True(t, errs.IsRetryable(err))
}

func TestGetMacroSeriesEmptyIsNotAnError(t *testing.T) {
	macro := &fakeMacroRepo{}
	loader := newTestLoader(persistence.Repository{MacroObservations: macro})

	points, err := loader.GetMacroSeries(context.Background(), "IPCA", domain.MustParseDate("2026-02-21"), 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

type fakeCurveRepo struct {
	records []domain.CurveRecord
}

func (f *fakeCurveRepo) QueryCurvePoints(ctx context.Context, curveID string, start, end domain.Date) ([]domain.CurveRecord, error) {
	var out []domain.CurveRecord
	for _, rec := range f.records {
		if !rec.CurveDate.Before(start) && !rec.CurveDate.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestGetCurveReturnsTenorMap(t *testing.T) {
	asOf := domain.MustParseDate("2026-02-21")
	curve := &fakeCurveRepo{
		records: []domain.CurveRecord{
			{CurveID: "DI", CurveDate: asOf, TenorDays: 30, Rate: 0.1075},
			{CurveID: "DI", CurveDate: asOf, TenorDays: 360, Rate: 0.1150},
		},
	}
	loader := newTestLoader(persistence.Repository{CurvePoints: curve})

	rates, err := loader.GetCurve(context.Background(), "DI", asOf)
	require.NoError(t, err)
	assert.Equal(t, 0.1075, rates[30])
	assert.Equal(t, 0.1150, rates[360])
}

func TestGetCurveHistoryFiltersToSingleTenor(t *testing.T) {
	asOf := domain.MustParseDate("2026-02-21")
	curve := &fakeCurveRepo{
		records: []domain.CurveRecord{
			{CurveID: "DI", CurveDate: asOf.AddDays(-1), TenorDays: 30, Rate: 0.1070},
			{CurveID: "DI", CurveDate: asOf.AddDays(-1), TenorDays: 360, Rate: 0.1140},
			{CurveID: "DI", CurveDate: asOf, TenorDays: 30, Rate: 0.1075},
		},
	}
	loader := newTestLoader(persistence.Repository{CurvePoints: curve})

	history, err := loader.GetCurveHistory(context.Background(), "DI", 30, asOf, 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0.1070, history[0].Rate)
	assert.Equal(t, 0.1075, history[1].Rate)
}
