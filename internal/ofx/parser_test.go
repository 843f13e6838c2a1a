package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
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
<TRNTYPE>ATM
<DTPOSTED>20240305120000[0:GMT]
<TRNAMT>-500000.00
<FITID>BCA2024030501
<NAME>TARIKAN ATM 05/03
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20240331120000[0:GMT]
<TRNAMT>-17000.00
<FITID>BCA2024033101
<NAME>BIAYA ADM
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240331120000[0:GMT]
<TRNAMT>1234.56
<FITID>BCA2024033102
<NAME>BUNGA
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>7984234.56
<DTASOF>20240331120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
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
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>IDR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000[0:GMT]
<DTEND>20240131000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-459900
<FITID>CC2024011001
<NAME>POS PURCHASE TOKOPEDIA
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-186000
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-645900
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{name: "bank statement", ofxData: sampleBankOFX, expectedCount: 4},
		{name: "credit card statement", ofxData: sampleCreditCardOFX, expectedCount: 2},
		{name: "invalid OFX data", ofxData: "not valid OFX", expectedError: true},
		{name: "empty OFX", ofxData: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactions, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.ofxData), "user-1")

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, transactions, tt.expectedCount)
		})
	}
}

func TestParseFile_RequiresUser(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "")
	assert.Error(t, err)
}

func TestParseBankTransactions(t *testing.T) {
	transactions, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "user-1")
	require.NoError(t, err)
	require.Len(t, transactions, 4)

	tests := []struct {
		amount      string
		description string
		category    string
		txnType     model.TransactionType
	}{
		{amount: "8500000", description: "PT MAJU JAYA", category: CategoryOther, txnType: model.TypeIncome},
		{amount: "500000", description: "05/03", category: CategoryCash, txnType: model.TypeExpense},
		{amount: "17000", description: "BIAYA ADM", category: CategoryBankFee, txnType: model.TypeExpense},
		{amount: "1234.56", description: "BUNGA", category: CategoryInterest, txnType: model.TypeIncome},
	}

	for i, tt := range tests {
		tx := transactions[i]
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, "user-1", tx.UserID)
		assert.Equal(t, tt.txnType, tx.Type, "transaction %d", i)
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString(tt.amount)), "transaction %d amount %s", i, tx.Amount)
		assert.Equal(t, tt.category, tx.Category, "transaction %d", i)
		assert.Equal(t, tt.description, tx.Description, "transaction %d", i)
		assert.Equal(t, model.SourceOFX, tx.Source)
		assert.Equal(t, tx.GenerateHash(), tx.Hash)
	}

	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), transactions[0].Date)
}

func TestParseCreditCardTransactions(t *testing.T) {
	transactions, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX), "user-1")
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, "TOKOPEDIA", transactions[0].Description)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(459900)))
	assert.Equal(t, model.TypeExpense, transactions[0].Type)

	assert.Equal(t, "NETFLIX.COM", transactions[1].Description)
	assert.True(t, transactions[1].Amount.Equal(decimal.NewFromInt(186000)))
}

func TestParseFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX), "user-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{name: "remove POS prefix", tx: ofxgo.Transaction{Name: "POS PURCHASE INDOMARET"}, expected: "INDOMARET"},
		{name: "remove transfer prefix", tx: ofxgo.Transaction{Name: "TRSF E-BANKING DB BUDI"}, expected: "BUDI"},
		{name: "strip leading date", tx: ofxgo.Transaction{Name: "03/15 GRAB*FOOD"}, expected: "GRAB*FOOD"},
		{name: "keep clean name", tx: ofxgo.Transaction{Name: "NETFLIX.COM"}, expected: "NETFLIX.COM"},
		{name: "trim whitespace", tx: ofxgo.Transaction{Name: "  SHOPEE  "}, expected: "SHOPEE"},
		{name: "generic name uses memo", tx: ofxgo.Transaction{Name: "DEBIT", Memo: "ALFAMART"}, expected: "ALFAMART"},
		{name: "payee wins", tx: ofxgo.Transaction{Name: "POS 123", Payee: &ofxgo.Payee{Name: "Kopi Kenangan"}}, expected: "Kopi Kenangan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.extractMerchantName(tt.tx))
		})
	}
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()
	got := parser.preprocessOFX("\n\n<SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<CODE>\n", got)
}

func TestImportHashIsStable(t *testing.T) {
	parser := NewParser()
	first, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "user-1")
	require.NoError(t, err)
	second, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "user-1")
	require.NoError(t, err)

	for i := range first {
		assert.NotEqual(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Hash, second[i].Hash)
	}

	other, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX), "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Hash, other[0].Hash)
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"8830123456"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}
