package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhereClause(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name      string
		q         Query
		wantWhere string
		wantArgs  int
	}{
		{"empty", Query{}, "", 0},
		{"session", Query{SessionID: "abc"}, " WHERE session_id = $1", 1},
		{
			"all filters",
			Query{SessionID: "abc", Event: "login", From: from, To: to, FailedOnly: true},
			" WHERE session_id = $1 AND event = $2 AND occurred_at >= $3 AND occurred_at <= $4 AND error <> ''",
			4,
		},
		{"failed only", Query{FailedOnly: true}, " WHERE error <> ''", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildWhereClause(tt.q)
			assert.Equal(t, tt.wantWhere, where)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	ts, id, err := decodeCursor(encodeCursor(at, 991))
	require.NoError(t, err)
	assert.True(t, at.Equal(ts))
	assert.Equal(t, int64(991), id)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, c := range []string{"!!!", "bm9waXBl", "MjAyNHwx"} {
		_, _, err := decodeCursor(c)
		assert.Error(t, err, c)
	}
}
