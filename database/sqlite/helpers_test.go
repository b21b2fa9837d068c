package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// tempDSN returns a DSN for a database file inside the test's temp dir.
func tempDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "ledger.db")
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) postsign.SlipRepo {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("slips_%s", getRandomString(t))
	tables := postsign.Tables{Slips: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}
