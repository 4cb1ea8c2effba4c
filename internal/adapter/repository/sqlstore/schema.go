package sqlstore

import (
	"strings"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

const tableName = "job_logs"

const createTable = `CREATE TABLE IF NOT EXISTS job_logs (
	riskdate      TEXT    NOT NULL,
	id            INTEGER NOT NULL,
	type          TEXT    NOT NULL,
	"timestamp"   TEXT    NOT NULL,
	run_date      TEXT    NOT NULL,
	duration      INTEGER NOT NULL,
	config_count  INTEGER NOT NULL,
	job_id        TEXT    NOT NULL,
	day           TEXT,
	month         TEXT,
	year          INTEGER,
	week          TEXT,
	log_hour      INTEGER,
	month_end     INTEGER,
	quarter_end   INTEGER,
	year_end      INTEGER,
	job_count     INTEGER,
	job_sequence  INTEGER,
	job_run_count INTEGER,
	job_order     TEXT,
	PRIMARY KEY (riskdate, id, type, "timestamp")
)`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_job_logs_type ON job_logs (type)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_riskdate ON job_logs (riskdate)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_run_date ON job_logs (run_date)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_job_id ON job_logs (job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_id_type_riskdate ON job_logs (id, type, riskdate)`,
}

// quote wraps a column name so keywords like "timestamp" are safe in both dialects.
func quote(col string) string {
	return `"` + col + `"`
}

func columnList() string {
	quoted := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rowValues returns the insert arguments of a record in domain.Columns order.
func rowValues(r domain.FeatureRecord) []any {
	return []any{
		r.RiskDate.Format(domain.DateLayout),
		r.ID,
		r.Type,
		r.Timestamp.Format(domain.TimestampLayout),
		r.RunDate.Format(domain.DateLayout),
		r.Duration,
		r.ConfigCount,
		r.JobID,
		r.Day,
		r.Month,
		r.Year,
		r.Week,
		r.LogHour,
		r.MonthEnd,
		r.QuarterEnd,
		r.YearEnd,
		nullableInt(r.JobCount),
		nullableInt(r.JobSequence),
		nullableInt(r.JobRunCount),
		r.JobOrder,
	}
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
