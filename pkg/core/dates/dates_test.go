package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_Inclusive(t *testing.T) {
	days, err := Range("2025-02-27", "2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, days)
}

func TestRange_SingleDay(t *testing.T) {
	days, err := Range("2025-03-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01"}, days)
}

func TestRange_EndBeforeStart(t *testing.T) {
	_, err := Range("2025-03-02", "2025-03-01")
	assert.Error(t, err)
}

func TestRange_InvalidDate(t *testing.T) {
	_, err := Range("2025-13-01", "2025-03-01")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("2025-03-01", "2025-03-01", "2025-03-03"))
	assert.True(t, Within("2025-03-03", "2025-03-01", "2025-03-03"))
	assert.False(t, Within("2025-02-28", "2025-03-01", "2025-03-03"))
	assert.False(t, Within("2025-03-04", "2025-03-01", "2025-03-03"))
}

func TestAddDays_CrossesMonth(t *testing.T) {
	day, err := AddDays("2024-02-28", 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", day)
}
