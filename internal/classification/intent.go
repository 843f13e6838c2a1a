// Package classification maps free-text chat messages to intents and extracts
// the amount and category entities the dispatcher needs.
package classification

import (
	"fmt"

	"github.com/Veraticus/catat/internal/common"
	"github.com/shopspring/decimal"
)

// Intent is the closed set of actions a message can request.
type Intent string

// Supported intents.
const (
	IntentExpense Intent = "transaction.expense"
	IntentIncome  Intent = "transaction.income"
	IntentSummary Intent = "report.summary"
	IntentHistory Intent = "report.transactions"
	IntentBudget  Intent = "report.budget"
	IntentUnknown Intent = "unknown"
)

// trainableIntents lists the intents a corpus may label, in canonical order.
var trainableIntents = []Intent{
	IntentExpense,
	IntentIncome,
	IntentSummary,
	IntentHistory,
	IntentBudget,
}

// ParseIntent converts a label into an Intent, rejecting anything outside the closed set.
func ParseIntent(label string) (Intent, error) {
	switch intent := Intent(label); intent {
	case IntentExpense, IntentIncome, IntentSummary, IntentHistory, IntentBudget, IntentUnknown:
		return intent, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidIntent, label)
}

// IsRecording reports whether the intent writes a transaction.
func (i Intent) IsRecording() bool {
	return i == IntentExpense || i == IntentIncome
}

func (i Intent) String() string {
	return string(i)
}

// EntityType names an extracted slot.
type EntityType string

// Entity types.
const (
	EntityAmount   EntityType = "amount"
	EntityCategory EntityType = "category"
)

// Entity is a typed value extracted from a message.
type Entity struct {
	Type  EntityType `json:"entity"`
	Value string     `json:"value"`
}

// Resolution records which stage decided the intent.
type Resolution string

// Resolution stages.
const (
	ResolvedByModel Resolution = "model"
	ResolvedByRule  Resolution = "rule"
	ResolvedNone    Resolution = "none"
)

// Result is the classification of a single message.
type Result struct {
	Intent     Intent     `json:"intent"`
	ResolvedBy Resolution `json:"resolved_by"`
	Utterance  string     `json:"utterance"`
	Normalized string     `json:"normalized"`
	Entities   []Entity   `json:"entities"`
	Confidence float64    `json:"confidence"`
}

// Entity returns the first value of the given type.
func (r *Result) Entity(t EntityType) (string, bool) {
	for _, e := range r.Entities {
		if e.Type == t {
			return e.Value, true
		}
	}
	return "", false
}

// Amount parses the amount entity.
func (r *Result) Amount() (decimal.Decimal, bool) {
	raw, ok := r.Entity(EntityAmount)
	if !ok {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
