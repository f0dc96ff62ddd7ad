package rank

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		bands []Band
		score float64
		want  string
	}{
		{HealthBands, 80, "A"},
		{HealthBands, 79.9, "B"},
		{HealthBands, 60, "B"},
		{HealthBands, 40, "C"},
		{HealthBands, 20, "D"},
		{HealthBands, 19.9, "F"},
		{ChurnBands, 60, "Critical"},
		{ChurnBands, 59.9, "High"},
		{ChurnBands, 20, "Medium"},
		{ChurnBands, 0, "Low"},
		{ExpansionBands, 60, "Hot"},
		{ExpansionBands, 40, "Warm"},
		{ExpansionBands, 20, "Developing"},
		{ExpansionBands, 19, "Early"},
		{TrendBands, 30, "Strong Growth"},
		{TrendBands, 10, "Improving"},
		{TrendBands, -10, "Stable"},
		{TrendBands, -30, "Declining"},
		{TrendBands, -31, "Sharp Decline"},
	}
	for _, tt := range tests {
		label, action := Classify(tt.bands, tt.score)
		assert.Equal(t, tt.want, label, "score %v", tt.score)
		assert.NotEmpty(t, action)
	}
}

func TestLessTieBreaks(t *testing.T) {
	rows := []struct {
		score float64
		ref   domain.AccountRef
	}{
		{50, domain.AccountRef{CustomerID: 3, MRR: 100}},
		{50, domain.AccountRef{CustomerID: 1, MRR: 500}},
		{90, domain.AccountRef{CustomerID: 2, MRR: 50}},
		{50, domain.AccountRef{CustomerID: 4, MRR: 500}},
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return Less(rows[i].score, rows[j].score, true, rows[i].ref, rows[j].ref)
	})

	// Highest score first, then among the 50s MRR descending, then ID
	// ascending between the two equal-MRR accounts.
	assert.Equal(t, int64(2), int64(rows[0].ref.CustomerID))
	assert.Equal(t, int64(1), int64(rows[1].ref.CustomerID))
	assert.Equal(t, int64(4), int64(rows[2].ref.CustomerID))
	assert.Equal(t, int64(3), int64(rows[3].ref.CustomerID))
}

func TestLessAscending(t *testing.T) {
	refA := domain.AccountRef{CustomerID: 1}
	refB := domain.AccountRef{CustomerID: 2}
	assert.True(t, Less(10, 20, false, refA, refB))
	assert.False(t, Less(20, 10, false, refA, refB))
}

func TestTruncate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Len(t, Truncate(rows, 3), 3)
	assert.Len(t, Truncate(rows, 10), 5)
	assert.Len(t, Truncate(rows, 0), 5)
}
