package config

const (
	defaultDataDir            = "~/.local/share/labelq"
	defaultDatabaseName       = "labelq.db"
	defaultLogDir             = "~/.local/share/labelq/logs"
	defaultEtcdPrefix         = "/labelq/queues/"
	defaultDialTimeoutSeconds = 5
	defaultRebuildConcurrency = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		FastQueue: FastQueue{
			Backend:            BackendMemory,
			EtcdEndpoints:      []string{"127.0.0.1:2379"},
			EtcdPrefix:         defaultEtcdPrefix,
			DialTimeoutSeconds: defaultDialTimeoutSeconds,
		},
		Fill: Fill{
			ClaimMode:          ClaimBaseline,
			RebuildConcurrency: defaultRebuildConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
