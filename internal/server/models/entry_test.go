package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceipts_ValueAndScan(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	in := Receipts{{ReceiptID: "r1", Filename: "a.pdf", StorageKey: "receipts/a", FileType: "application/pdf", FileSize: 10, UploadedBy: "u1", UploadedAt: at}}

	v, err := in.Value()
	require.NoError(t, err)

	var out Receipts
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestReceipts_NilValueIsEmptyArray(t *testing.T) {
	v, err := Receipts(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestReceipts_ScanVariants(t *testing.T) {
	var r Receipts
	require.NoError(t, r.Scan(nil))
	assert.Nil(t, r)

	require.NoError(t, r.Scan(`[{"receiptId":"x"}]`))
	require.Len(t, r, 1)
	assert.Equal(t, "x", r[0].ReceiptID)

	assert.Error(t, r.Scan(42))
}

func TestEntry_HasValue(t *testing.T) {
	e := Entry{}
	assert.False(t, e.HasValue())

	e.Value = decimal.NewNullDecimal(decimal.Zero)
	assert.True(t, e.HasValue())
}

func TestMonthID(t *testing.T) {
	assert.Equal(t, "2024-03-01", MonthID(2024, 3))
	assert.Equal(t, "2025-12-01", MonthID(2025, 12))
}

func TestCaller_IsMaster(t *testing.T) {
	assert.True(t, Caller{Role: RoleMaster}.IsMaster())
	assert.False(t, Caller{Role: RolePastor}.IsMaster())
}
