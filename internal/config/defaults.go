package config

const (
	defaultFuzzyThreshold = 0.60
	defaultFuzzyTieMargin = 0.05
	defaultSafeMarginPct  = 5.0
	defaultSnapPct        = 1.0
	defaultMaxRows        = 2
	defaultCornerSizePct  = 15.0
	defaultJournalPath    = "~/.local/share/slatelink/journal.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// defaultJoinPriority ranks identity-like headers, highest first.
var defaultJoinPriority = []string{"Name", "Filename", "File", "Clip Name", "Clip", "Basename"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Matching: Matching{
			JoinPriority:   append([]string(nil), defaultJoinPriority...),
			FuzzyThreshold: defaultFuzzyThreshold,
			FuzzyTieMargin: defaultFuzzyTieMargin,
		},
		Overlay: Overlay{
			SafeMarginPct: defaultSafeMarginPct,
			SnapPct:       defaultSnapPct,
			SnapToGrid:    true,
			MaxRows:       defaultMaxRows,
			CornerSizePct: defaultCornerSizePct,
		},
		Journal: Journal{
			Enabled: false,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
