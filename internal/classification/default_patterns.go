package classification

// DefaultPatterns returns the keyword rules used as the classifier fallback.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:       "Budget",
			Intent:     IntentBudget,
			Regex:      `\b(budget|anggaran)\b`,
			Priority:   100,
			Confidence: 0.80,
		},
		{
			Name:       "History",
			Intent:     IntentHistory,
			Regex:      `\b(riwayat|histori|history|mutasi|transaksi)\b`,
			Priority:   90,
			Confidence: 0.75,
		},
		{
			Name:       "Summary",
			Intent:     IntentSummary,
			Regex:      `\b(saldo|laporan|rekap|ringkasan)\b`,
			Priority:   80,
			Confidence: 0.75,
		},
		{
			Name:       "Income",
			Intent:     IntentIncome,
			Regex:      `\b(gaji|gajian|terima|dapat|masuk|pemasukan|bonus)\b`,
			Priority:   70,
			Confidence: 0.70,
		},
		{
			Name:       "Expense",
			Intent:     IntentExpense,
			Regex:      `\b(beli|jajan|belanja|bayar|keluar|pengeluaran|habis)\b`,
			Priority:   60,
			Confidence: 0.70,
		},
	}
}
