package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

func testingLogEnabled() bool {
	return os.Getenv("BOXSCORE_TEST_LOG") != ""
}

// NewConfig returns the default configuration pointed at a temp dir store.
func NewConfig(t testing.TB) *common.Config {
	t.Helper()
	cfg := common.DefaultConfig()
	dir := t.TempDir()
	cfg.Database.DSN = "file:" + filepath.Join(dir, "boxscores.db")
	cfg.Server.LockPath = filepath.Join(dir, "boxscores.db.lock")
	cfg.Batch.ReviewDir = filepath.Join(dir, "review")
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BackoffBase = 0
	cfg.LLM.BackoffMax = 0
	return cfg
}
