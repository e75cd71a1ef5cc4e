package dbx

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullTimeRoundTrip(t *testing.T) {
	assert.False(t, NullTime(nil).Valid)
	assert.Nil(t, TimePtr(sql.NullTime{}))

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	nt := NullTime(&now)
	assert.True(t, nt.Valid)
	assert.Equal(t, now, *TimePtr(nt))
}

func TestNullStringRoundTrip(t *testing.T) {
	empty := ""
	assert.False(t, NullString(nil).Valid)
	assert.False(t, NullString(&empty).Valid)
	assert.Nil(t, StringPtr(sql.NullString{}))

	id := "e1"
	ns := NullString(&id)
	assert.True(t, ns.Valid)
	assert.Equal(t, "e1", *StringPtr(ns))
}
