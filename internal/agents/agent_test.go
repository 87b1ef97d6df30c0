package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

func TestPointsFromColumnZipsDatesAndValues(t *testing.T) {
	dates := []domain.Date{domain.MustParseDate("2026-02-19"), domain.MustParseDate("2026-02-20")}
	column := []float64{5.01, 5.05}

	points := pointsFromColumn(dates, column)
	require.Len(t, points, 2)
	assert.Equal(t, dates[0], points[0].Date)
	require.NotNil(t, points[0].Value)
	assert.InDelta(t, 5.01, *points[0].Value, 1e-9)
	assert.Equal(t, dates[1], points[1].Date)
	require.NotNil(t, points[1].Value)
	assert.InDelta(t, 5.05, *points[1].Value, 1e-9)
}

func TestPointsFromColumnTruncatesToShorterColumn(t *testing.T) {
	dates := []domain.Date{domain.MustParseDate("2026-02-19"), domain.MustParseDate("2026-02-20")}
	column := []float64{5.01}

	points := pointsFromColumn(dates, column)
	assert.Len(t, points, 1)
}

func TestLastOfSkipsTrailingNilValues(t *testing.T) {
	v := 1.5
	points := []pit.Point{{Date: domain.MustParseDate("2026-02-19"), Value: &v}, {Date: domain.MustParseDate("2026-02-20"), Value: nil}}
	got, ok := lastOf(points)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, got, 1e-9)
}
