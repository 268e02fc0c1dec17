package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "SELECT count() FROM pool_events", "SELECT count() FROM pool_events"},
		{"trailing semicolon", "SELECT kind FROM pool_events;", "SELECT kind FROM pool_events"},
		{"fenced with tag", "```sql\nSELECT kind FROM pool_events\n```", "SELECT kind FROM pool_events"},
		{"fenced without tag", "```\nSELECT 1 FROM pool_events\n```", "SELECT 1 FROM pool_events"},
		{"prose around fence", "Here you go:\n```sql\nSELECT pair FROM pool_events\n```\nHope that helps.", "SELECT pair FROM pool_events"},
		{"tag without fence", "sql\nSELECT account FROM pool_events", "SELECT account FROM pool_events"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractSQL(tc.in))
		})
	}
}

func TestGuardSQL(t *testing.T) {
	require.NoError(t, guardSQL("SELECT count() FROM pool.pool_events WHERE kind = 'swap'"))
	require.NoError(t, guardSQL("SELECT pair, sum(toFloat64(amount_in)) FROM pool_events GROUP BY pair"))
	require.NoError(t, guardSQL("SELECT * FROM pool_events ORDER BY timestamp DESC LIMIT 10"))

	assert.Error(t, guardSQL(""))
	assert.Error(t, guardSQL("DROP TABLE pool_events"))
	assert.Error(t, guardSQL("SELECT 1"))
	assert.Error(t, guardSQL("SELECT 1 FROM system.tables"))
	assert.Error(t, guardSQL("SELECT * FROM pool_events; DROP TABLE pool_events"))
	assert.Error(t, guardSQL("SELECT * FROM pool_events WHERE kind = 'swap' UNION ALL SELECT * FROM system.numbers"))
}

func TestGuardSQL_KeywordBoundaries(t *testing.T) {
	// Forbidden keywords inside longer identifiers do not trip the guard.
	assert.NoError(t, guardSQL("SELECT dropped_rows, kind FROM pool_events"))
	assert.Error(t, guardSQL("SELECT kind FROM pool_events SETTINGS allow_ddl = 1 union all SELECT name FROM system.one"))
}
