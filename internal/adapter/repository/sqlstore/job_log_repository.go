// Package sqlstore is the canonical append-only job run store on database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// DefaultChunkSize bounds the rows written per insert transaction.
const DefaultChunkSize = 5000

// JobLogRepository implements domain.JobLogRepository for sqlite and postgres.
type JobLogRepository struct {
	db        *sql.DB
	dialect   Dialect
	logger    *slog.Logger
	chunkSize int
}

// NewJobLogRepository wraps an open database. chunkSize <= 0 uses DefaultChunkSize.
func NewJobLogRepository(db *sql.DB, dialect Dialect, logger *slog.Logger, chunkSize int) *JobLogRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &JobLogRepository{
		db:        db,
		dialect:   dialect,
		logger:    logger.With("component", "job_log_repository", "dialect", string(dialect)),
		chunkSize: chunkSize,
	}
}

// Open opens the database, ensures the schema and returns a ready repository.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger, chunkSize int) (*JobLogRepository, error) {
	d, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(ctx, d, dsn)
	if err != nil {
		return nil, err
	}
	repo := NewJobLogRepository(db, d, logger, chunkSize)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *JobLogRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the job_logs table and its indexes.
func (r *JobLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create table %s: %w", tableName, err)
	}
	for _, stmt := range createIndexes {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Append writes the records whose dedup key is not yet stored. Duplicates inside
// the batch keep their first occurrence. Each chunk commits on its own; a failing
// chunk is rolled back, logged and skipped.
func (r *JobLogRepository) Append(ctx context.Context, records []domain.FeatureRecord) (domain.AppendResult, error) {
	res := domain.AppendResult{Received: len(records)}
	if len(records) == 0 {
		return res, nil
	}
	if err := validate(records); err != nil {
		return res, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return res, err
	}

	existing, err := r.existingKeys(ctx)
	if err != nil {
		return res, err
	}

	fresh := make([]domain.FeatureRecord, 0, len(records))
	for _, rec := range records {
		k := rec.Key()
		if _, dup := existing[k]; dup {
			res.Duplicates++
			continue
		}
		existing[k] = struct{}{}
		fresh = append(fresh, rec)
	}
	if len(fresh) == 0 {
		r.logger.Info("no new job runs to insert", "received", res.Received, "duplicates", res.Duplicates)
		return res, nil
	}

	for start, chunk := 0, 0; start < len(fresh); start, chunk = start+r.chunkSize, chunk+1 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+r.chunkSize, len(fresh))
		if err := r.insertChunk(ctx, fresh[start:end]); err != nil {
			res.FailedChunks++
			res.FailedRows += end - start
			r.logger.Error("chunk insert failed, skipping", "chunk", chunk, "rows", end-start, "error", err)
			continue
		}
		res.Inserted += end - start
		r.logger.Debug("chunk inserted", "chunk", chunk, "rows", end-start)
	}

	r.logger.Info("append completed",
		"received", res.Received,
		"duplicates", res.Duplicates,
		"inserted", res.Inserted,
		"failed_chunks", res.FailedChunks,
	)
	return res, nil
}

func validate(records []domain.FeatureRecord) error {
	for i, rec := range records {
		var missing []string
		if rec.RiskDate.IsZero() {
			missing = append(missing, domain.ColRiskDate)
		}
		if rec.Type == "" {
			missing = append(missing, domain.ColType)
		}
		if !rec.HasTimestamp() {
			missing = append(missing, domain.ColTimestamp)
		}
		if rec.RunDate.IsZero() {
			missing = append(missing, domain.ColRunDate)
		}
		if rec.JobID == "" {
			missing = append(missing, domain.ColJobID)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: record %d missing required columns %s", domain.ErrSchemaViolation, i, strings.Join(missing, ", "))
		}
	}
	return nil
}

// existingKeys reads only the dedup key projection.
func (r *JobLogRepository) existingKeys(ctx context.Context) (map[domain.DedupKey]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT riskdate, id, type, "timestamp" FROM job_logs`)
	if err != nil {
		return nil, fmt.Errorf("read dedup keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[domain.DedupKey]struct{})
	for rows.Next() {
		var k domain.DedupKey
		if err := rows.Scan(&k.RiskDate, &k.ID, &k.Type, &k.Timestamp); err != nil {
			return nil, fmt.Errorf("scan dedup key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (r *JobLogRepository) insertChunk(ctx context.Context, chunk []domain.FeatureRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after Commit

	var stmt *sql.Stmt
	switch r.dialect {
	case Postgres:
		stmt, err = tx.PrepareContext(ctx, pq.CopyIn(tableName, domain.Columns...))
	default:
		stmt, err = tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, columnList(), placeholders(len(domain.Columns))))
	}
	if err != nil {
		return err
	}

	for _, rec := range chunk {
		if _, err := stmt.ExecContext(ctx, rowValues(rec)...); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if r.dialect == Postgres {
		// Flush the COPY buffer; constraint violations surface here.
		if _, err := stmt.ExecContext(ctx); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the rows matching every filter, ordered by timestamp then identity.
func (r *JobLogRepository) Load(ctx context.Context, filters domain.Filters) ([]domain.StoredRow, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY "timestamp", riskdate, id, type`, columnList(), tableName, where)

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("load job runs: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job runs: %w", err)
	}
	return out, nil
}

func buildWhere(filters domain.Filters) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	var (
		clauses []string
		args    []any
	)
	for _, f := range filters {
		if !domain.IsColumn(f.Field) {
			return "", nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, f.Field)
		}
		switch f.Op {
		case domain.OpEq:
			clauses = append(clauses, quote(f.Field)+" = ?")
			args = append(args, bindValue(f.Field, f.Value))
		case domain.OpIn:
			list, _ := domain.AsList(f.Value)
			if len(list) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", quote(f.Field), placeholders(len(list))))
			for _, v := range list {
				args = append(args, bindValue(f.Field, v))
			}
		default:
			return "", nil, fmt.Errorf("filter %s: operator %q not supported by the store", f.Field, f.Op)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func bindValue(field string, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if field == domain.ColTimestamp {
		return t.Format(domain.TimestampLayout)
	}
	return t.Format(domain.DateLayout)
}

func scanRow(rows *sql.Rows) (domain.StoredRow, error) {
	var (
		row                         domain.StoredRow
		riskdate, ts, runDate       string
		day, month, week, jobOrder  sql.NullString
		year, logHour               sql.NullInt64
		monthEnd, quarterEnd        sql.NullInt64
		yearEnd                     sql.NullInt64
		jobCount, jobSeq, jobRunCnt sql.NullInt64
	)
	err := rows.Scan(
		&riskdate, &row.ID, &row.Type, &ts, &runDate, &row.Duration, &row.ConfigCount,
		&row.JobID, &day, &month, &year, &week, &logHour,
		&monthEnd, &quarterEnd, &yearEnd,
		&jobCount, &jobSeq, &jobRunCnt, &jobOrder,
	)
	if err != nil {
		return row, fmt.Errorf("scan job run: %w", err)
	}

	if row.RiskDate, err = time.Parse(domain.DateLayout, riskdate); err != nil {
		return row, fmt.Errorf("parse riskdate %q: %w", riskdate, err)
	}
	if row.RunDate, err = time.Parse(domain.DateLayout, runDate); err != nil {
		return row, fmt.Errorf("parse run_date %q: %w", runDate, err)
	}
	if row.Timestamp, err = time.Parse(domain.TimestampLayout, ts); err != nil {
		return row, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}

	row.Day, row.Month, row.Week, row.JobOrder = day.String, month.String, week.String, jobOrder.String
	row.Year, row.LogHour = int(year.Int64), int(logHour.Int64)
	row.MonthEnd, row.QuarterEnd, row.YearEnd = int(monthEnd.Int64), int(quarterEnd.Int64), int(yearEnd.Int64)
	row.JobCount = intPtr(jobCount)
	row.JobSequence = intPtr(jobSeq)
	row.JobRunCount = intPtr(jobRunCnt)
	return row, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return domain.IntPtr(int(n.Int64))
}

// LatestRunDate returns the most recent run_date in the store.
func (r *JobLogRepository) LatestRunDate(ctx context.Context) (time.Time, bool, error) {
	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(run_date) FROM job_logs`).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("query latest run_date: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(domain.DateLayout, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse latest run_date %q: %w", latest.String, err)
	}
	return t, true, nil
}

// Count returns the number of stored rows.
func (r *JobLogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count job runs: %w", err)
	}
	return n, nil
}
