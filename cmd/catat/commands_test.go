package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>IND
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>IDR
<BANKACCTFROM>
<BANKID>014
<ACCTID>8830123456
<ACCTTYPE>SAVINGS
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240301000000[0:GMT]
<DTEND>20240331000000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240301080000[0:GMT]
<TRNAMT>8500000.00
<FITID>BCA2024030101
<NAME>TRSF E-BANKING CR PT MAJU JAYA
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20240331120000[0:GMT]
<TRNAMT>-17000.00
<FITID>BCA2024033101
<NAME>BIAYA ADM
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

// runCLI executes the root command against a private config and database.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath, "--log-level", "error"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "database:\n  path: " + filepath.Join(dir, "catat.db") + "\nbot:\n  timezone: Asia/Jakarta\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCommands_UserBudgetImportReport(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "users", "add", "--phone", "+62 81234567890", "--name", "budi", "--code", "ABC123")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered 6281234567890")
	assert.Contains(t, out, "ABC123")

	_, err = runCLI(t, cfg, "users", "add", "--phone", "6281234567890", "--name", "budi", "--code", "ABC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	out, err = runCLI(t, cfg, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "6281234567890")
	assert.Contains(t, out, "valid")

	out, err = runCLI(t, cfg, "budgets", "add", "--phone", "6281234567890", "--category", "Biaya Bank", "--amount", "50000", "--start", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Rp50.000")

	statement := filepath.Join(t.TempDir(), "maret.ofx")
	require.NoError(t, os.WriteFile(statement, []byte(testStatement), 0o600))

	out, err = runCLI(t, cfg, "import-ofx", "--phone", "6281234567890", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "2 new, 0 already imported")

	out, err = runCLI(t, cfg, "import-ofx", "--phone", "6281234567890", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "0 new, 2 already imported")

	out, err = runCLI(t, cfg, "report", "history", "--phone", "6281234567890")
	require.NoError(t, err)
	assert.Contains(t, out, "2 Transaksi Terakhir")
	assert.Contains(t, out, "Biaya Bank: -Rp17.000")

	out, err = runCLI(t, cfg, "report", "budget", "--phone", "6281234567890")
	require.NoError(t, err)
	assert.Contains(t, out, "Terpakai: Rp17.000 (34.0%)")
}

func TestCommands_ReportUnknownUser(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "report", "summary", "--phone", "628000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user registered for 628000")
}

func TestCommands_DeactivateAndActivate(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "users", "add", "--phone", "628111", "--name", "", "--code", "", "--days", "30")
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "users", "deactivate", "--phone", "628111@c.us")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated 628111")

	out, err = runCLI(t, cfg, "users", "activate", "--phone", "628111", "--days", "7", "--code", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Activated 628111")
}

func TestCommands_Classify(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "classify", "--json", "catat", "pengeluaran", "50rb", "untuk", "makan")
	require.NoError(t, err)

	var result classification.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, classification.IntentExpense, result.Intent)
	amount, ok := result.Amount()
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(50000)))
}

func TestCommands_Version(t *testing.T) {
	out, err := runCLI(t, writeTestConfig(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "catat dev\n", out)
}

func TestNewActivation(t *testing.T) {
	generated := newActivation("  ", 30)
	assert.Len(t, generated.Code, 8)
	assert.Equal(t, strings.ToUpper(generated.Code), generated.Code)
	assert.True(t, generated.IsActive)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), generated.ExpiresAt, time.Minute)

	assert.Equal(t, "KODE1", newActivation(" KODE1 ", 1).Code)
}

func TestRenderUsers(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := renderUsers([]model.User{
		{PhoneNumber: "628111", Username: "ani", IsActive: true, Activation: &model.Activation{IsActive: true, ExpiresAt: now.AddDate(0, 1, 0)}},
		{PhoneNumber: "628222", Username: "budi", IsActive: true, Activation: &model.Activation{IsActive: true, ExpiresAt: now.AddDate(0, -1, 0)}},
		{PhoneNumber: "628333", Username: "citra"},
	}, now, time.UTC)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "expired")
	assert.Contains(t, out, "no activation")
	assert.Contains(t, out, "2024-04-15")
}

func TestRenderBudgets(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	out := renderBudgets([]model.Budget{
		{Category: "makan", Amount: decimal.NewFromInt(1500000), Period: model.PeriodMonthly, StartDate: now.AddDate(0, 0, -14)},
		{Category: "transport", Amount: decimal.NewFromInt(300000), Period: model.PeriodMonthly, StartDate: end.AddDate(0, -1, 0), EndDate: &end},
	}, dispatch.NewFormatter(time.UTC), now)

	assert.Contains(t, out, "Rp1.500.000")
	assert.Contains(t, out, "29/02/2024")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.ofx", "b.ofx", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.ofx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.qfx")})
	assert.Error(t, err)
}

func TestImportStats(t *testing.T) {
	stats := &importStats{}
	stats.add([]model.Transaction{
		{Type: model.TypeIncome, Amount: decimal.NewFromInt(100)},
		{Type: model.TypeExpense, Amount: decimal.NewFromInt(40)},
		{Type: model.TypeExpense, Amount: decimal.NewFromInt(2)},
	})

	assert.Equal(t, 3, stats.parsed)
	assert.True(t, stats.income.Equal(decimal.NewFromInt(100)))
	assert.True(t, stats.expenses.Equal(decimal.NewFromInt(42)))
}

func TestPrintClassification(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printClassification(&buf, classification.Result{
		Intent:     classification.IntentIncome,
		Utterance:  "catat pemasukan 1jt dari gaji",
		Confidence: 0.91,
		Entities: []classification.Entity{
			{Type: classification.EntityAmount, Value: "1000000"},
			{Type: classification.EntityCategory, Value: "gaji"},
		},
	}, false))

	out := buf.String()
	assert.Contains(t, out, string(classification.IntentIncome))
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "1000000")
	assert.Contains(t, out, "gaji")
}
