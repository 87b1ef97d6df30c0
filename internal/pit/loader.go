// Package pit answers "what did we know about series X at moment T"
// without leaking future information. Every query is censored by an
// as-of date: only observations whose release_time falls at or before
// the end of that calendar day (in the series' source timezone) are
// visible, and ties between revisions are broken by the highest
// revision_number.
package pit

import (
	"context"
	"time"

	"github.com/mcauduro0/macro-signal-pipeline/infra/breakers"
	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/errs"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

// Point is one (observation_date, value) pair in a censored series.
type Point struct {
	Date  domain.Date
	Value *float64
}

// Loader serves point-in-time queries against a Repository, wrapping each
// call in a circuit breaker so a struggling backend fails fast instead of
// stalling every agent behind it.
type Loader struct {
	repo     persistence.Repository
	breaker  *breakers.Breaker
	location *time.Location
}

// New builds a Loader. loc is the source-local timezone used to compute
// "end of as_of_date" for the release_time censoring rule; callers
// processing Brazilian macro data pass time.LoadLocation("America/Sao_Paulo").
func New(repo persistence.Repository, loc *time.Location) *Loader {
	return &Loader{repo: repo, breaker: breakers.New("pit_loader"), location: loc}
}

func (l *Loader) asOfInstant(asOf domain.Date) time.Time {
	return asOf.EndOfDay(l.location)
}

// GetMacroSeries returns the censored vintage of seriesCode over
// [asOf-lookbackDays, asOf], one point per observation_date for which a
// vintage exists. Replaying this call later with the same asOf and an
// append-only repository returns bit-identical results.
func (l *Loader) GetMacroSeries(ctx context.Context, seriesCode string, asOf domain.Date, lookbackDays int) ([]Point, error) {
	start := asOf.AddDays(-lookbackDays)
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.MacroObservations.QueryMacroObservations(ctx, seriesCode, start, asOf, l.asOfInstant(asOf))
	})
	if err != nil {
		return nil, errs.NewRetryable("get_macro_series:"+seriesCode, err)
	}
	records := result.([]domain.ObservationRecord)
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		points = append(points, Point{Date: rec.ObservationDate, Value: rec.Value})
	}
	return points, nil
}

// MarketFrame is the OHLCV column set get_market_data returns.
type MarketFrame struct {
	Dates         []domain.Date
	Open          []float64
	High          []float64
	Low           []float64
	Close         []float64
	AdjustedClose []float64
	Volume        []float64
}

// GetMarketData returns end-of-session OHLCV bars over
// [asOf-lookbackDays, asOf]; release_time for market data is the end of
// the trading session, so the same end-of-day censoring rule applies.
func (l *Loader) GetMarketData(ctx context.Context, ticker string, asOf domain.Date, lookbackDays int) (MarketFrame, error) {
	start := asOf.AddDays(-lookbackDays)
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.MarketBars.QueryMarketBars(ctx, ticker, start, asOf, l.asOfInstant(asOf))
	})
	if err != nil {
		return MarketFrame{}, errs.NewRetryable("get_market_data:"+ticker, err)
	}
	bars := result.([]persistence.MarketBar)
	frame := MarketFrame{}
	for _, bar := range bars {
		frame.Dates = append(frame.Dates, bar.BarDate)
		frame.Open = append(frame.Open, bar.Open)
		frame.High = append(frame.High, bar.High)
		frame.Low = append(frame.Low, bar.Low)
		frame.Close = append(frame.Close, bar.Close)
		frame.AdjustedClose = append(frame.AdjustedClose, bar.AdjustedClose)
		frame.Volume = append(frame.Volume, bar.Volume)
	}
	return frame, nil
}

// GetFlowData returns the censored vintage of a capital-flow series,
// same semantics as GetMacroSeries.
func (l *Loader) GetFlowData(ctx context.Context, flowType string, asOf domain.Date, lookbackDays int) ([]Point, error) {
	start := asOf.AddDays(-lookbackDays)
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.FlowObservations.QueryFlowObservations(ctx, flowType, start, asOf, l.asOfInstant(asOf))
	})
	if err != nil {
		return nil, errs.NewRetryable("get_flow_data:"+flowType, err)
	}
	records := result.([]domain.FlowRecord)
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		points = append(points, Point{Date: rec.ObservationDate, Value: rec.Value})
	}
	return points, nil
}

// GetFiscalData returns the censored vintage of a fiscal series, same
// semantics as GetMacroSeries.
func (l *Loader) GetFiscalData(ctx context.Context, fiscalMetric string, asOf domain.Date, lookbackDays int) ([]Point, error) {
	start := asOf.AddDays(-lookbackDays)
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.FiscalObservations.QueryFiscalObservations(ctx, fiscalMetric, start, asOf, l.asOfInstant(asOf))
	})
	if err != nil {
		return nil, errs.NewRetryable("get_fiscal_data:"+fiscalMetric, err)
	}
	records := result.([]domain.FiscalRecord)
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		points = append(points, Point{Date: rec.ObservationDate, Value: rec.Value})
	}
	return points, nil
}

// GetCurve returns the mapping tenor_days -> rate published for curveID
// on asOf. Curve points carry no vintage dimension; a curve_date
// uniquely determines the published rate per tenor.
func (l *Loader) GetCurve(ctx context.Context, curveID string, asOf domain.Date) (map[int]float64, error) {
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.CurvePoints.QueryCurvePoints(ctx, curveID, asOf, asOf)
	})
	if err != nil {
		return nil, errs.NewRetryable("get_curve:"+curveID, err)
	}
	records := result.([]domain.CurveRecord)
	out := make(map[int]float64, len(records))
	for _, rec := range records {
		out[rec.TenorDays] = rec.Rate
	}
	return out, nil
}

// CurveHistoryPoint is one day's rate for a fixed tenor.
type CurveHistoryPoint struct {
	Date domain.Date
	Rate float64
}

// GetCurveHistory returns the rate history for one tenor of curveID over
// [asOf-lookbackDays, asOf].
func (l *Loader) GetCurveHistory(ctx context.Context, curveID string, tenorDays int, asOf domain.Date, lookbackDays int) ([]CurveHistoryPoint, error) {
	start := asOf.AddDays(-lookbackDays)
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.repo.CurvePoints.QueryCurvePoints(ctx, curveID, start, asOf)
	})
	if err != nil {
		return nil, errs.NewRetryable("get_curve_history:"+curveID, err)
	}
	records := result.([]domain.CurveRecord)
	out := make([]CurveHistoryPoint, 0, len(records))
	for _, rec := range records {
		if rec.TenorDays != tenorDays {
			continue
		}
		out = append(out, CurveHistoryPoint{Date: rec.CurveDate, Rate: rec.Rate})
	}
	return out, nil
}
