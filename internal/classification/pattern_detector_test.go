package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatternDetector(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		patterns []Pattern
		wantErr  bool
	}{
		{
			name: "valid patterns",
			patterns: []Pattern{
				{Name: "Budget", Intent: IntentBudget, Regex: `budget`, Priority: 100, Confidence: 0.8},
				{Name: "Expense", Intent: IntentExpense, Regex: `beli`, Priority: 50, Confidence: 0.7},
			},
			wantErr: false,
		},
		{
			name: "invalid regex",
			patterns: []Pattern{
				{Name: "Bad Pattern", Intent: IntentIncome, Regex: `[invalid regex`, Priority: 100, Confidence: 0.9},
			},
			wantErr: true,
			errMsg:  "failed to compile pattern",
		},
		{
			name: "invalid intent",
			patterns: []Pattern{
				{Name: "Transfer", Intent: "transaction.transfer", Regex: `transfer`, Priority: 100, Confidence: 0.9},
			},
			wantErr: true,
			errMsg:  "invalid intent",
		},
		{
			name:     "empty patterns",
			patterns: []Pattern{},
			wantErr:  false,
		},
		{
			name: "patterns sorted by priority",
			patterns: []Pattern{
				{Name: "Low Priority", Intent: IntentExpense, Regex: `LOW`, Priority: 10},
				{Name: "High Priority", Intent: IntentIncome, Regex: `HIGH`, Priority: 100},
				{Name: "Medium Priority", Intent: IntentSummary, Regex: `MEDIUM`, Priority: 50},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd, err := NewPatternDetector(tt.patterns)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, pd)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, pd)
			assert.Equal(t, len(tt.patterns), pd.PatternCount())

			for i := 0; i < len(pd.patterns)-1; i++ {
				assert.GreaterOrEqual(t, pd.patterns[i].Priority, pd.patterns[i+1].Priority)
			}
		})
	}
}

func TestPatternDetector_Detect(t *testing.T) {
	pd, err := NewPatternDetector(DefaultPatterns())
	require.NoError(t, err)

	tests := []struct {
		wantMatch *Match
		name      string
		text      string
	}{
		{
			name:      "budget keyword",
			text:      "anggaran makan",
			wantMatch: &Match{PatternName: "Budget", Intent: IntentBudget, Confidence: 0.80},
		},
		{
			name:      "budget beats expense on priority",
			text:      "bayar budget",
			wantMatch: &Match{PatternName: "Budget", Intent: IntentBudget, Confidence: 0.80},
		},
		{
			name:      "history keyword",
			text:      "mutasi rekening",
			wantMatch: &Match{PatternName: "History", Intent: IntentHistory, Confidence: 0.75},
		},
		{
			name:      "case insensitive",
			text:      "SALDO",
			wantMatch: &Match{PatternName: "Summary", Intent: IntentSummary, Confidence: 0.75},
		},
		{
			name:      "income keyword",
			text:      "gajian 5000000",
			wantMatch: &Match{PatternName: "Income", Intent: IntentIncome, Confidence: 0.70},
		},
		{
			name:      "expense keyword",
			text:      "jajan kopi 20000",
			wantMatch: &Match{PatternName: "Expense", Intent: IntentExpense, Confidence: 0.70},
		},
		{
			name:      "word boundary respected",
			text:      "membelikan",
			wantMatch: nil,
		},
		{
			name:      "no match",
			text:      "xyzzy plugh",
			wantMatch: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, pd.Detect(tt.text))
		})
	}
}
