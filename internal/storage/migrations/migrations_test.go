package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- header comment; with a semicolon
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y String DEFAULT 'a;b', z String DEFAULT 'it''s') ENGINE = Memory;
`
	stmts, err := splitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Contains(t, stmts[1], `'a;b'`)
	assert.Contains(t, stmts[1], `'it''s'`)
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := splitStatements(`SELECT 'open;`)
	assert.Error(t, err)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/rfm")
	require.NoError(t, err)
	assert.Equal(t, "rfm", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/bad-name")
	assert.Error(t, err)
}

func TestLoad_OrdersAndSkipsEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":   {Data: []byte("SELECT 2;")},
		"pg/001_a.sql":   {Data: []byte("SELECT 1;")},
		"pg/003_c.sql":   {Data: []byte("  \n")},
		"pg/README.md":   {Data: []byte("docs")},
		"pg/sub/004.sql": {Data: []byte("SELECT 4;")},
	}
	ms, err := load(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "001_a.sql", ms[0].Version)
	assert.Equal(t, "002_b.sql", ms[1].Version)
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: "001"}, {Version: "002"}, {Version: "003"}}
	got := pending(all, map[string]bool{"001": true, "003": true})
	require.Len(t, got, 1)
	assert.Equal(t, "002", got[0].Version)
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := Load("postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_transactions.sql", pg[0].Version)

	ch, err := Load("clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Equal(t, "001_customer_profiles.sql", ch[0].Version)

	stmts, err := splitStatements(ch[0].SQL)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}
