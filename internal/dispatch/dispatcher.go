// Package dispatch turns a resolved sender and a classified message into
// exactly one reply, performing at most one write along the way.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Defaults for a Dispatcher.
const (
	DefaultHistoryLimit = 5
	DefaultCallTimeout  = 5 * time.Second
)

// DefaultMaxAmount caps a single recorded amount.
var DefaultMaxAmount = decimal.NewFromInt(1_000_000_000)

// Action is the terminal state a message was dispatched to.
type Action string

// Actions.
const (
	ActionRejected      Action = "rejected"
	ActionRecordExpense Action = "record_expense"
	ActionRecordIncome  Action = "record_income"
	ActionSummary       Action = "summary"
	ActionHistory       Action = "history"
	ActionBudgetStatus  Action = "budget_status"
	ActionHelp          Action = "help"
	ActionError         Action = "error"
)

// Outcome says how the action ended.
type Outcome string

// Outcomes.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeInvalid Outcome = "invalid"
	OutcomeFailed  Outcome = "failed"
)

// Request is everything the dispatcher needs for one message. Exactly one of
// User or Rejection is set.
type Request struct {
	User      *model.User
	Rejection *identity.Rejection
	Result    classification.Result
	Body      string
	Source    string
}

// Reply is the single outbound message for a request.
type Reply struct {
	Transaction *model.Transaction // Set only when a write happened
	Action      Action
	Outcome     Outcome
	Text        string
}

// Summary is the month-to-date cash flow.
type Summary struct {
	Start    time.Time
	End      time.Time
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// BudgetUsage is spend against one budget.
type BudgetUsage struct {
	Category   string
	Percentage string
	Amount     decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLocation sets the time zone used for month boundaries and dates.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) { d.location = loc }
}

// WithHistoryLimit sets how many transactions the history report shows.
func WithHistoryLimit(n int) Option {
	return func(d *Dispatcher) { d.historyLimit = n }
}

// WithCallTimeout bounds every store call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.callTimeout = timeout }
}

// WithMaxAmount sets the largest amount accepted for a recording.
func WithMaxAmount(max decimal.Decimal) Option {
	return func(d *Dispatcher) { d.maxAmount = max }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithIDGenerator replaces the transaction ID source.
func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) { d.newID = newID }
}

// Dispatcher maps a request to its action. It holds no per-message state
// and is safe for concurrent use.
type Dispatcher struct {
	transactions service.TransactionStore
	budgets      service.BudgetStore
	location     *time.Location
	format       *Formatter
	render       *Renderer
	now          func() time.Time
	newID        func() string
	maxAmount    decimal.Decimal
	historyLimit int
	callTimeout  time.Duration
}

// New creates a dispatcher over the given stores.
func New(transactions service.TransactionStore, budgets service.BudgetStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transactions: transactions,
		budgets:      budgets,
		location:     time.UTC,
		now:          time.Now,
		newID:        uuid.NewString,
		maxAmount:    DefaultMaxAmount,
		historyLimit: DefaultHistoryLimit,
		callTimeout:  DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.location == nil {
		d.location = time.UTC
	}
	d.format = NewFormatter(d.location)
	d.render = NewRenderer(d.format)
	return d
}

// Renderer returns the reply renderer.
func (d *Dispatcher) Renderer() *Renderer {
	return d.render
}

// Apology is the reply used when a message could not be handled at all.
func (d *Dispatcher) Apology() Reply {
	return Reply{Action: ActionError, Outcome: OutcomeFailed, Text: d.render.Apology(ActionError)}
}

// Dispatch produces the reply for req. Store failures are logged and turned
// into an apology. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	if req.Rejection != nil || req.User == nil {
		reason := identity.ReasonNotRegistered
		if req.Rejection != nil {
			reason = req.Rejection.Reason
		}
		return Reply{Action: ActionRejected, Outcome: OutcomeOK, Text: d.render.Denial(reason)}
	}

	switch req.Result.Intent {
	case classification.IntentExpense:
		return d.record(ctx, req, model.TypeExpense, ActionRecordExpense)
	case classification.IntentIncome:
		return d.record(ctx, req, model.TypeIncome, ActionRecordIncome)
	case classification.IntentSummary:
		summary, err := d.ComputeSummary(ctx, req.User.ID)
		if err != nil {
			return d.fail(err, req, ActionSummary)
		}
		return Reply{Action: ActionSummary, Outcome: OutcomeOK, Text: d.render.Summary(summary)}
	case classification.IntentHistory:
		history, err := d.History(ctx, req.User.ID)
		if err != nil {
			return d.fail(err, req, ActionHistory)
		}
		return Reply{Action: ActionHistory, Outcome: OutcomeOK, Text: d.render.History(history)}
	case classification.IntentBudget:
		usage, err := d.BudgetStatus(ctx, req.User.ID)
		if err != nil {
			return d.fail(err, req, ActionBudgetStatus)
		}
		return Reply{Action: ActionBudgetStatus, Outcome: OutcomeOK, Text: d.render.Budgets(usage)}
	default:
		return Reply{Action: ActionHelp, Outcome: OutcomeOK, Text: d.render.Help()}
	}
}

func (d *Dispatcher) record(ctx context.Context, req Request, txnType model.TransactionType, action Action) Reply {
	amount, hasAmount := req.Result.Amount()
	category, _ := req.Result.Entity(classification.EntityCategory)
	category = strings.TrimSpace(category)

	if !hasAmount || !amount.IsPositive() || amount.GreaterThan(d.maxAmount) || category == "" {
		common.LogDebug("Rejected malformed recording", common.Fields{
			"user_id": req.User.ID,
			"intent":  string(req.Result.Intent),
			"amount":  amount.String(),
		})
		return Reply{Action: action, Outcome: OutcomeInvalid, Text: d.render.FormatHelp(txnType)}
	}

	txn := &model.Transaction{
		ID:          d.newID(),
		UserID:      req.User.ID,
		Type:        txnType,
		Amount:      amount,
		Category:    category,
		Source:      req.Source,
		Description: req.Body,
		Date:        d.now().UTC(),
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	if err := d.transactions.Create(callCtx, txn); err != nil {
		return d.fail(err, req, action)
	}

	return Reply{Action: action, Outcome: OutcomeOK, Text: d.render.Recorded(txn), Transaction: txn}
}

func (d *Dispatcher) fail(err error, req Request, action Action) Reply {
	common.LogError(err, "Dispatch failed", common.Fields{
		"user_id": req.User.ID,
		"intent":  string(req.Result.Intent),
		"action":  string(action),
	})
	return Reply{Action: action, Outcome: OutcomeFailed, Text: d.render.Apology(action)}
}

// MonthStart returns midnight on the first day of t's month in the
// dispatcher time zone.
func (d *Dispatcher) MonthStart(t time.Time) time.Time {
	local := t.In(d.location)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, d.location)
}

// ComputeSummary totals income and expenses from the start of the current
// month through now.
func (d *Dispatcher) ComputeSummary(ctx context.Context, userID string) (Summary, error) {
	now := d.now()
	summary := Summary{Start: d.MonthStart(now), End: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := d.sumByType(gctx, userID, model.TypeIncome, summary.Start, summary.End)
		summary.Income = total
		return err
	})
	g.Go(func() error {
		total, err := d.sumByType(gctx, userID, model.TypeExpense, summary.Start, summary.End)
		summary.Expenses = total
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary.Balance = summary.Income.Sub(summary.Expenses)
	return summary, nil
}

func (d *Dispatcher) sumByType(ctx context.Context, userID string, txnType model.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	total, err := d.transactions.SumByTypeAndWindow(callCtx, userID, txnType, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", txnType, err)
	}
	return total, nil
}

// History returns the newest transactions for the user.
func (d *Dispatcher) History(ctx context.Context, userID string) ([]model.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	transactions, err := d.transactions.ListRecent(callCtx, userID, d.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return transactions, nil
}

// BudgetStatus computes spend against every budget covering now. The result
// keeps the store's budget order.
func (d *Dispatcher) BudgetStatus(ctx context.Context, userID string) ([]BudgetUsage, error) {
	now := d.now()

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	budgets, err := d.budgets.ListActive(callCtx, userID, now)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	active := budgets[:0:0]
	for i := range budgets {
		if budgets[i].Covers(now) {
			active = append(active, budgets[i])
		}
	}

	usage := make([]BudgetUsage, len(active))
	g, gctx := errgroup.WithContext(ctx)
	for i := range active {
		i := i
		budget := active[i]
		g.Go(func() error {
			sumCtx, cancel := context.WithTimeout(gctx, d.callTimeout)
			defer cancel()
			spent, err := d.transactions.SumByCategoryAndWindow(sumCtx, userID, budget.Category, budget.StartDate, budget.WindowEnd(now))
			if err != nil {
				return fmt.Errorf("sum budget %s: %w", budget.Category, err)
			}
			usage[i] = BudgetUsage{
				Category:   budget.Category,
				Amount:     budget.Amount,
				Spent:      spent,
				Remaining:  budget.Amount.Sub(spent),
				Percentage: Percentage(spent, budget.Amount),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return usage, nil
}
