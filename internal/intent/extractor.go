package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

var (
	topN      = regexp.MustCompile(`\btop (\d+)\b`)
	fromTo    = regexp.MustCompile(`from ([a-z0-9 ,/-]+?) to ([a-z0-9 ,/-]+)`)
	slowWords = regexp.MustCompile(`\bslow`)
)

// dateLayouts are tried in order for "from X to Y" ranges. Month names match
// case-insensitively.
var dateLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
}

// Extractor pulls explicit parameters out of prompt text with keyword rules.
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an extractor; a nil clock uses time.Now.
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// Extract returns the parameters stated in the prompt. Unparseable ranges are ignored.
func (e *Extractor) Extract(prompt string) domain.Params {
	p := strings.ToLower(prompt)
	params := domain.Params{}
	filters := map[string]any{}

	t := e.now()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	if m := topN.FindStringSubmatch(p); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			params[domain.ParamN] = n
		}
	}

	if strings.Contains(p, "fastest") {
		params[domain.ParamAscending] = true
	}
	if slowWords.MatchString(p) {
		params[domain.ParamAscending] = false
	}

	switch {
	case strings.Contains(p, "this week"):
		offset := (int(today.Weekday()) + 6) % 7
		filters[domain.ColRunDate+" >="] = day(today.AddDate(0, 0, -offset))
	case strings.Contains(p, "this month"):
		filters[domain.ColRunDate+" >="] = day(today.AddDate(0, 0, 1-today.Day()))
	case strings.Contains(p, "this year"):
		filters[domain.ColRunDate+" >="] = day(time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()))
	case strings.Contains(p, "yesterday"):
		filters[domain.ColRunDate] = day(today.AddDate(0, 0, -1))
	case strings.Contains(p, "today"):
		filters[domain.ColRunDate] = day(today)
	}

	switch {
	case strings.Contains(p, "last 7 days"), strings.Contains(p, "past 7 days"):
		params[domain.ParamStartDate] = day(today.AddDate(0, 0, -7))
	case strings.Contains(p, "last 15 days"), strings.Contains(p, "past 15 days"):
		params[domain.ParamStartDate] = day(today.AddDate(0, 0, -15))
	case strings.Contains(p, "past 2 weeks"), strings.Contains(p, "last 2 weeks"):
		params[domain.ParamStartDate] = day(today.AddDate(0, 0, -14))
	case strings.Contains(p, "last month"):
		firstThisMonth := today.AddDate(0, 0, 1-today.Day())
		lastMonthEnd := firstThisMonth.AddDate(0, 0, -1)
		params[domain.ParamStartDate] = day(lastMonthEnd.AddDate(0, 0, 1-lastMonthEnd.Day()))
		params[domain.ParamEndDate] = day(lastMonthEnd)
	}

	if m := fromTo.FindStringSubmatch(p); m != nil {
		start, okStart := parseDate(m[1])
		end, okEnd := parseDate(m[2])
		if okStart && okEnd {
			params[domain.ParamStartDate] = day(start)
			params[domain.ParamEndDate] = day(end)
		}
	}

	if len(filters) > 0 {
		params[domain.ParamFilters] = filters
	}
	return params
}

// parseDate accepts the known layouts. Trailing words are dropped one at a time
// so "5 july 2025 by type" still parses.
func parseDate(s string) (time.Time, bool) {
	words := strings.Fields(s)
	for n := len(words); n > 0; n-- {
		candidate := strings.Join(words[:n], " ")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func day(t time.Time) string {
	return t.Format(domain.DateLayout)
}
