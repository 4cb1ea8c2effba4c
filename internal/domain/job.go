package domain

import (
	"strconv"
	"time"
)

const (
	// DateLayout is the canonical text form of riskdate and run_date.
	DateLayout = "2006-01-02"
	// TimestampLayout is the canonical text form of a log timestamp, millisecond precision.
	TimestampLayout = "2006-01-02 15:04:05.000"
)

// ParsedRecord is one scheduler log line that matched the export grammar.
// Every field is populated; a line that fails to parse never becomes a record.
type ParsedRecord struct {
	Timestamp   time.Time
	ConfigCount int
	RiskDate    time.Time
	ID          int
	Type        string
	RunDate     time.Time
	Duration    int
	// RunClock is the "<H>h:<M>m" wall clock text that follows run_date.
	RunClock string
}

// JobIdentity joins the job identity into "riskdate_id_type".
func (r ParsedRecord) JobIdentity() string {
	return r.RiskDate.Format(DateLayout) + "_" + strconv.Itoa(r.ID) + "_" + r.Type
}

// HasTimestamp reports whether the record carries a usable timestamp.
func (r ParsedRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Key returns the dedup key of the record.
func (r ParsedRecord) Key() DedupKey {
	return DedupKey{
		RiskDate:  r.RiskDate.Format(DateLayout),
		ID:        r.ID,
		Type:      r.Type,
		Timestamp: r.Timestamp.Format(TimestampLayout),
	}
}

// FeatureRecord is a ParsedRecord enriched with calendar and sequencing features.
// Sequencing fields are nil when the timestamp is missing.
type FeatureRecord struct {
	ParsedRecord

	JobID      string
	Day        string
	Month      string
	Year       int
	Week       string
	LogHour    int
	MonthEnd   int
	QuarterEnd int
	YearEnd    int

	JobCount    *int
	JobSequence *int
	JobRunCount *int
	JobOrder    string
}

// StoredRow is a FeatureRecord as persisted in the canonical store.
type StoredRow = FeatureRecord

// DedupKey is the uniqueness constraint of the store: (riskdate, id, type, timestamp).
type DedupKey struct {
	RiskDate  string
	ID        int
	Type      string
	Timestamp string
}

func (k DedupKey) String() string {
	return k.RiskDate + "|" + strconv.Itoa(k.ID) + "|" + k.Type + "|" + k.Timestamp
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
