package leaveguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"identical", Span{"2025-03-01", "2025-03-03"}, Span{"2025-03-01", "2025-03-03"}, true},
		{"touching end to start", Span{"2025-03-01", "2025-03-03"}, Span{"2025-03-03", "2025-03-05"}, true},
		{"touching start to end", Span{"2025-03-03", "2025-03-05"}, Span{"2025-03-01", "2025-03-03"}, true},
		{"contained", Span{"2025-03-01", "2025-03-10"}, Span{"2025-03-04", "2025-03-05"}, true},
		{"adjacent", Span{"2025-03-01", "2025-03-03"}, Span{"2025-03-04", "2025-03-05"}, false},
		{"disjoint", Span{"2025-03-10", "2025-03-12"}, Span{"2025-03-01", "2025-03-03"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
		})
	}
}

func TestSpanValidate(t *testing.T) {
	assert.NoError(t, Span{"2025-03-01", "2025-03-01"}.Validate())

	err := Span{"2025-03-02", "2025-03-01"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")

	assert.Error(t, Span{"03/01/2025", "2025-03-01"}.Validate())
}

func TestFindOverlap(t *testing.T) {
	existing := []Span{
		{"2025-01-01", "2025-01-02"},
		{"2025-03-02", "2025-03-02"},
	}

	found, ok := FindOverlap(Span{"2025-03-01", "2025-03-03"}, existing)
	require.True(t, ok)
	assert.Equal(t, Span{"2025-03-02", "2025-03-02"}, found)

	_, ok = FindOverlap(Span{"2025-02-01", "2025-02-03"}, existing)
	assert.False(t, ok)
}

func TestApprovedWithin(t *testing.T) {
	span := Span{"2025-03-01", "2025-03-03"}
	approved := []string{"2025-03-03", "2025-02-28", "2025-03-01", "2025-03-03"}

	assert.Equal(t, []string{"2025-03-01", "2025-03-03"}, ApprovedWithin(span, approved))
}

func TestQuotaBreaches(t *testing.T) {
	span := Span{"2025-03-01", "2025-03-03"}
	counts := map[string]int{
		"2025-03-01": 9,
		"2025-03-02": 10,
		"2025-03-03": 14,
	}

	breaches, err := QuotaBreaches(span, counts, DefaultDailyQuota)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-02", "2025-03-03"}, breaches)
}

func TestFormatQuotaWarning(t *testing.T) {
	assert.Empty(t, FormatQuotaWarning(nil, 10))
	assert.Equal(t,
		"daily leave quota of 10 already reached on: 2025-03-02, 2025-03-03",
		FormatQuotaWarning([]string{"2025-03-02", "2025-03-03"}, 10))
}
