package dispatch

import (
	"fmt"
	"strings"

	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
)

// Reply texts.
const (
	textNotRegistered     = "Maaf, nomor Anda belum terdaftar. Silakan hubungi admin untuk mendaftar."
	textInactiveAccount   = "Maaf, akun Anda tidak aktif. Silakan hubungi admin."
	textActivationExpired = "Kode aktivasi Anda telah kadaluarsa. Silakan hubungi admin."

	textExpenseFormat = `Format tidak valid. Contoh: "catat pengeluaran 50000 untuk makan"`
	textIncomeFormat  = `Format tidak valid. Contoh: "catat pemasukan 1000000 dari gaji"`

	textGenericApology = "Maaf, terjadi kesalahan. Silakan coba lagi nanti."
	textEmptyHistory   = "📝 Belum ada transaksi yang tercatat."
	textEmptyBudgets   = "📊 Belum ada budget aktif."

	textHelp = "🤖 *Bantuan Penggunaan Bot*\n\n" +
		"1. Catat Pengeluaran:\n" +
		"   \"catat pengeluaran [jumlah] untuk [kategori]\"\n\n" +
		"2. Catat Pemasukan:\n" +
		"   \"catat pemasukan [jumlah] dari [kategori]\"\n\n" +
		"3. Lihat Laporan:\n" +
		"   - \"laporan keuangan\"\n" +
		"   - \"ringkasan transaksi\"\n" +
		"   - \"lihat budget\""
)

var apologies = map[Action]string{
	ActionRecordExpense: "Maaf, terjadi kesalahan saat mencatat pengeluaran.",
	ActionRecordIncome:  "Maaf, terjadi kesalahan saat mencatat pemasukan.",
	ActionSummary:       "Maaf, terjadi kesalahan saat mengambil ringkasan keuangan.",
	ActionHistory:       "Maaf, terjadi kesalahan saat mengambil riwayat transaksi.",
	ActionBudgetStatus:  "Maaf, terjadi kesalahan saat mengambil status budget.",
}

// Renderer turns computed report data into reply text.
type Renderer struct {
	format *Formatter
}

// NewRenderer creates a renderer using f for money and dates.
func NewRenderer(f *Formatter) *Renderer {
	return &Renderer{format: f}
}

// Help lists the supported phrasings.
func (r *Renderer) Help() string {
	return textHelp
}

// Denial explains a rejection.
func (r *Renderer) Denial(reason identity.Reason) string {
	switch reason {
	case identity.ReasonInactiveAccount:
		return textInactiveAccount
	case identity.ReasonActivationExpired:
		return textActivationExpired
	default:
		return textNotRegistered
	}
}

// FormatHelp shows a worked example for a recording intent.
func (r *Renderer) FormatHelp(txnType model.TransactionType) string {
	if txnType == model.TypeIncome {
		return textIncomeFormat
	}
	return textExpenseFormat
}

// Apology is the reply for a failed action.
func (r *Renderer) Apology(action Action) string {
	if text, ok := apologies[action]; ok {
		return text
	}
	return textGenericApology
}

// Recorded confirms a saved transaction.
func (r *Renderer) Recorded(txn *model.Transaction) string {
	if txn.Type == model.TypeIncome {
		return fmt.Sprintf("✅ Pemasukan sebesar %s dari %s berhasil dicatat.", r.format.Currency(txn.Amount), txn.Category)
	}
	return fmt.Sprintf("✅ Pengeluaran sebesar %s untuk %s berhasil dicatat.", r.format.Currency(txn.Amount), txn.Category)
}

// Summary renders the month-to-date totals.
func (r *Renderer) Summary(s Summary) string {
	return "📊 Ringkasan Keuangan Bulan Ini:\n\n" +
		"📈 Pemasukan: " + r.format.Currency(s.Income) + "\n" +
		"📉 Pengeluaran: " + r.format.Currency(s.Expenses) + "\n" +
		"💰 Saldo: " + r.format.Currency(s.Balance)
}

// History renders recent transactions, newest first.
func (r *Renderer) History(transactions []model.Transaction) string {
	if len(transactions) == 0 {
		return textEmptyHistory
	}

	entries := make([]string, 0, len(transactions))
	for i := range transactions {
		txn := &transactions[i]
		icon := "📉"
		if txn.Type == model.TypeIncome {
			icon = "📈"
		}
		entries = append(entries, fmt.Sprintf("%s %s\n• %s: %s",
			icon, r.format.Date(txn.Date), txn.Category, r.format.Signed(txn)))
	}
	return fmt.Sprintf("📝 %d Transaksi Terakhir:\n\n%s", len(transactions), strings.Join(entries, "\n\n"))
}

// Budgets renders utilization for each active budget.
func (r *Renderer) Budgets(usage []BudgetUsage) string {
	if len(usage) == 0 {
		return textEmptyBudgets
	}

	entries := make([]string, 0, len(usage))
	for _, u := range usage {
		entries = append(entries, fmt.Sprintf("%s:\nBudget: %s\nTerpakai: %s (%s%%)\nSisa: %s",
			u.Category,
			r.format.Currency(u.Amount),
			r.format.Currency(u.Spent),
			u.Percentage,
			r.format.Currency(u.Remaining)))
	}
	return "📊 Status Budget:\n\n" + strings.Join(entries, "\n\n")
}
