package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStrength(t *testing.T) {
	cases := []struct {
		name       string
		confidence float64
		want       SignalStrength
	}{
		{"zero is no signal", 0.0, StrengthNoSignal},
		{"negative is no signal", -0.2, StrengthNoSignal},
		{"just below weak boundary", 0.34, StrengthWeak},
		{"weak boundary is moderate", 0.35, StrengthModerate},
		{"just below moderate boundary", 0.59, StrengthModerate},
		{"moderate boundary is strong", 0.60, StrengthStrong},
		{"just below strong boundary", 0.84, StrengthStrong},
		{"strong boundary is extreme", 0.85, StrengthExtreme},
		{"full confidence is extreme", 1.0, StrengthExtreme},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyStrength(tc.confidence))
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-02-21")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-21", d.String())

	next := d.AddDays(1)
	assert.Equal(t, "2026-02-22", next.String())
	assert.True(t, d.Before(next))
	assert.True(t, next.After(d))
}

func TestDateParseRejectsMalformed(t *testing.T) {
	_, err := ParseDate("02/21/2026")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := MustParseDate("2025-12-31")
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-12-31"`, string(data))

	var got Date
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, d, got)
}

func TestNewSignalDerivesStrength(t *testing.T) {
	asOf := MustParseDate("2026-01-15")
	s := NewSignal("fx_beer_01", "fx", asOf, DirectionLong, 0.72, 1.5, 60, nil)

	assert.Equal(t, StrengthStrong, s.Strength)
	assert.True(t, s.Valid())
	assert.False(t, s.IsNoSignal())
	assert.NotNil(t, s.Metadata)
}

func TestNewNoSignal(t *testing.T) {
	asOf := MustParseDate("2026-01-15")
	s := NewNoSignal("fx_beer_01", "fx", asOf, "insufficient_history", 60)

	assert.True(t, s.IsNoSignal())
	assert.True(t, s.Valid())
	assert.Equal(t, DirectionNeutral, s.Direction)
	assert.Equal(t, 0.0, s.Confidence)
	assert.Equal(t, "insufficient_history", s.Metadata["reason"])
}

func TestReportCompositeRequiresSuffix(t *testing.T) {
	asOf := MustParseDate("2026-01-15")
	r := NewReport("fx", asOf)
	r.Signals = append(r.Signals,
		NewSignal("fx_beer_01", "fx", asOf, DirectionLong, 0.6, 1.0, 60, nil),
		NewSignal("fx_COMPOSITE", "fx", asOf, DirectionLong, 0.65, 1.0, 60, nil),
	)

	composite, ok := r.Composite()
	require.True(t, ok)
	assert.Equal(t, "fx_COMPOSITE", composite.SignalID)
}

func TestReportCompositeAbsentWhenNoSignals(t *testing.T) {
	r := NewReport("fx", MustParseDate("2026-01-15"))
	_, ok := r.Composite()
	assert.False(t, ok)
}

func TestStubReportFlagsAndDiagnostics(t *testing.T) {
	r := StubReport("monetary", MustParseDate("2026-01-15"), "timeout")
	assert.True(t, r.IsStub())
	assert.Contains(t, r.DataQualityFlags, "agent_stub_report")
	assert.Equal(t, "timeout", r.Diagnostics["stub_reason"])
	assert.Empty(t, r.Signals)
}

func TestAddDataQualityFlagDeduplicates(t *testing.T) {
	r := NewReport("inflation", MustParseDate("2026-01-15"))
	r.AddDataQualityFlag("stale_cpi")
	r.AddDataQualityFlag("stale_cpi")
	assert.Equal(t, []string{"stale_cpi"}, r.DataQualityFlags)
}

func TestProposalStatusIsTerminal(t *testing.T) {
	cases := []struct {
		status ProposalStatus
		want   bool
	}{
		{ProposalPending, false},
		{ProposalApproved, true},
		{ProposalRejected, true},
		{ProposalModifiedApproved, true},
		{ProposalExpired, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.status.IsTerminal(), "status %s", tc.status)
	}
}
