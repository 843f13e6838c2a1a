package dispatch

import (
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders money and dates the way Indonesian users write them.
type Formatter struct {
	printer  *message.Printer
	location *time.Location
}

// NewFormatter creates a formatter for the given time zone.
func NewFormatter(location *time.Location) *Formatter {
	if location == nil {
		location = time.UTC
	}
	return &Formatter{
		printer:  message.NewPrinter(language.Indonesian),
		location: location,
	}
}

// Currency formats an amount as Rp1.000.000. Fractions keep two digits.
func (f *Formatter) Currency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	if amount.Equal(amount.Truncate(0)) {
		return sign + "Rp" + f.printer.Sprintf("%d", amount.IntPart())
	}
	return sign + "Rp" + f.printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

// Signed formats a transaction amount with + for income and - for expenses.
func (f *Formatter) Signed(txn *model.Transaction) string {
	if txn.Type == model.TypeExpense {
		return "-" + f.Currency(txn.Amount.Abs())
	}
	return "+" + f.Currency(txn.Amount.Abs())
}

// Date formats t as dd/mm/yyyy in the bot time zone.
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.location).Format("02/01/2006")
}

// Percentage formats part/whole*100 with one decimal place. A zero whole yields "0.0".
func Percentage(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return decimal.Zero.StringFixed(1)
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1)
}
