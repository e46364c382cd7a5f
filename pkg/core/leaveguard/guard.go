// Package leaveguard holds the pure interval and per-day counting rules that
// decide whether a leave application may be created.
package leaveguard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jakechorley/shift-roster/pkg/core/dates"
)

// DefaultDailyQuota is the advisory cap on approved leave rows per calendar day
const DefaultDailyQuota = 10

// Span is an inclusive range of calendar days
type Span struct {
	Start string
	End   string
}

// Validate checks both ends parse and that End is not before Start
func (s Span) Validate() error {
	if _, err := dates.Parse(s.Start); err != nil {
		return err
	}
	if _, err := dates.Parse(s.End); err != nil {
		return err
	}
	if s.End < s.Start {
		return fmt.Errorf("invalid range: end date %s is before start date %s", s.End, s.Start)
	}
	return nil
}

// Days returns every calendar day in the span
func (s Span) Days() ([]string, error) {
	return dates.Range(s.Start, s.End)
}

// Contains reports whether day falls inside the span
func (s Span) Contains(day string) bool {
	return dates.Within(day, s.Start, s.End)
}

// Overlaps reports whether two spans share at least one day.
// Both ends are inclusive.
func Overlaps(a, b Span) bool {
	return a.Start <= b.End && a.End >= b.Start
}

// FindOverlap returns the first existing span that overlaps candidate
func FindOverlap(candidate Span, existing []Span) (Span, bool) {
	for _, span := range existing {
		if Overlaps(candidate, span) {
			return span, true
		}
	}
	return Span{}, false
}

// ApprovedWithin returns the approved days that fall inside the span, sorted
// and without duplicates
func ApprovedWithin(span Span, approvedDays []string) []string {
	seen := make(map[string]bool)
	var within []string
	for _, day := range approvedDays {
		if span.Contains(day) && !seen[day] {
			seen[day] = true
			within = append(within, day)
		}
	}
	sort.Strings(within)
	return within
}

// QuotaBreaches returns each day in the span whose approved count has already
// reached the quota, in calendar order
func QuotaBreaches(span Span, approvedCountByDay map[string]int, quota int) ([]string, error) {
	days, err := span.Days()
	if err != nil {
		return nil, err
	}
	var breaches []string
	for _, day := range days {
		if approvedCountByDay[day] >= quota {
			breaches = append(breaches, day)
		}
	}
	return breaches, nil
}

// FormatQuotaWarning renders breached days as a message for the applicant.
// It returns an empty string when there is nothing to warn about.
func FormatQuotaWarning(days []string, quota int) string {
	if len(days) == 0 {
		return ""
	}
	return fmt.Sprintf("daily leave quota of %d already reached on: %s", quota, strings.Join(days, ", "))
}
