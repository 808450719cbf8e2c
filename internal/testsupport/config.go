package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"labelq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The fast queue uses the memory backend and sampling is seeded so fills are
// reproducible.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.Database = filepath.Join(base, "data", "labelq.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.FastQueue.Backend = config.BackendMemory
	cfgVal.Fill.Seed = 1
	cfgVal.Metrics.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClaimMode sets the fill claim mode on the test config.
func WithClaimMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fill.ClaimMode = mode
	}
}

// WithSeed sets the sampling seed on the test config.
func WithSeed(seed uint64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fill.Seed = seed
	}
}

// WithEtcd switches the fast queue to etcd at the given endpoints. Each test
// gets its own key prefix.
func WithEtcd(endpoints ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FastQueue.Backend = config.BackendEtcd
		b.cfg.FastQueue.EtcdEndpoints = endpoints
		b.cfg.FastQueue.EtcdPrefix = "/labelq-test/" + uuid.NewString() + "/"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
