// Package parser turns scheduler export lines into typed records.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

const timestampLayout = "2006-01-02 15:04:05,000"

// exportLine is the only recognized grammar:
// <ts> INFO Export completed config_count:<int> riskdate:<date> id:<int> type:<token> on <date> <H>h:<M>m in duration:<int> seconds.
var exportLine = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}) INFO Export completed ` +
		`config_count:(\d+) riskdate:(\d{4}-\d{2}-\d{2}) id:(\d+) type:(\w+) ` +
		`on (\d{4}-\d{2}-\d{2}) (\d+)h:(\d+)m in duration:(\d+) seconds\.$`)

// Stats counts what happened to the lines of one input.
type Stats struct {
	Lines    int
	Parsed   int
	Rejected int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Lines += other.Lines
	s.Parsed += other.Parsed
	s.Rejected += other.Rejected
}

// Parse converts one line. Surrounding whitespace, including a CRLF ending, is
// ignored. ok is false when the line does not match the grammar or any field
// fails to convert; no partial record is ever returned.
func Parse(line string) (rec domain.ParsedRecord, ok bool) {
	m := exportLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return domain.ParsedRecord{}, false
	}

	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return domain.ParsedRecord{}, false
	}
	riskDate, err := time.Parse(domain.DateLayout, m[3])
	if err != nil {
		return domain.ParsedRecord{}, false
	}
	runDate, err := time.Parse(domain.DateLayout, m[6])
	if err != nil {
		return domain.ParsedRecord{}, false
	}

	ints := make([]int, 0, 5)
	for _, s := range []string{m[2], m[4], m[7], m[8], m[9]} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return domain.ParsedRecord{}, false
		}
		ints = append(ints, n)
	}

	return domain.ParsedRecord{
		Timestamp:   ts,
		ConfigCount: ints[0],
		RiskDate:    riskDate,
		ID:          ints[1],
		Type:        m[5],
		RunDate:     runDate,
		Duration:    ints[4],
		RunClock:    fmt.Sprintf("%dh:%dm", ints[2], ints[3]),
	}, true
}

// ParseReader parses every line of r in order. Rejected lines are counted, not returned.
// The error is only set when reading fails.
func ParseReader(r io.Reader) ([]domain.ParsedRecord, Stats, error) {
	var (
		records []domain.ParsedRecord
		stats   Stats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Lines++
		rec, ok := Parse(scanner.Text())
		if !ok {
			stats.Rejected++
			continue
		}
		stats.Parsed++
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, stats, fmt.Errorf("scan log lines: %w", err)
	}
	return records, stats, nil
}
