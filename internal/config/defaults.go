package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Dedup: DedupConfig{
			MinSize:       "0",
			Ignore:        []string{".git/", "node_modules/"},
			Preview:       false,
			Workers:       0,
			DefaultAction: ActionAsk,
			ProtectedPaths: []string{
				// User can add directories whose direct entries must never be deleted
			},
		},
		Hunt: HuntConfig{
			Patterns: []string{"*"},
			Ignore:   []string{".git"},
			MinSize:  "0",
		},
		Tree: TreeConfig{
			IndentUnit: 2,
			Force:      false,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
