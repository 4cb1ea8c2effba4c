package analytics

import (
	"math"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

type estimatorKey struct {
	typ string
	id  int
}

type moments struct {
	n          int
	sum, sumSq float64
}

func (m *moments) add(x float64) {
	m.n++
	m.sum += x
	m.sumSq += x * x
}

func (m moments) mean() float64 { return m.sum / float64(m.n) }

func (m moments) std() float64 {
	mu := m.mean()
	return math.Sqrt(math.Max(0, m.sumSq/float64(m.n)-mu*mu))
}

// Estimator predicts a run's duration from the history of its (type, id), falling
// back to its type and then to all rows. It is read-only once fitted.
type Estimator struct {
	byJob  map[estimatorKey]moments
	byType map[string]moments
	global moments
}

// FitEstimator builds an estimator from stored rows.
func FitEstimator(rows []domain.StoredRow) *Estimator {
	e := &Estimator{
		byJob:  make(map[estimatorKey]moments),
		byType: make(map[string]moments),
	}
	for _, r := range rows {
		d := float64(r.Duration)
		k := estimatorKey{typ: r.Type, id: r.ID}

		m := e.byJob[k]
		m.add(d)
		e.byJob[k] = m

		t := e.byType[r.Type]
		t.add(d)
		e.byType[r.Type] = t

		e.global.add(d)
	}
	return e
}

// Fitted reports whether the estimator saw any rows.
func (e *Estimator) Fitted() bool { return e.global.n > 0 }

// Predict returns the expected duration and the spread of the group it came from.
func (e *Estimator) Predict(typ string, id int) (predicted, std float64, ok bool) {
	if m, found := e.byJob[estimatorKey{typ: typ, id: id}]; found {
		return m.mean(), m.std(), true
	}
	if m, found := e.byType[typ]; found {
		return m.mean(), m.std(), true
	}
	if e.global.n > 0 {
		return e.global.mean(), e.global.std(), true
	}
	return 0, 0, false
}

// Enrich returns a copy of ds with predicted_duration and anomaly_score set.
// anomaly_score is |duration - predicted| / (std + 1).
func (e *Estimator) Enrich(ds domain.Dataset) domain.Dataset {
	if !e.Fitted() {
		return ds
	}

	out := domain.Dataset{Rows: make([]domain.JobRun, len(ds.Rows)), Enriched: map[string]bool{}}
	for k, v := range ds.Enriched {
		out.Enriched[k] = v
	}
	for i, r := range ds.Rows {
		pred, std, ok := e.Predict(r.Type, r.ID)
		if ok {
			score := math.Abs(float64(r.Duration)-pred) / (std + 1)
			r.PredictedDuration = &pred
			r.AnomalyScore = &score
		}
		out.Rows[i] = r
	}
	out.Enriched[domain.ColPredictedDuration] = true
	out.Enriched[domain.ColAnomalyScore] = true
	return out
}
