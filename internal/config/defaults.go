package config

const (
	defaultInputDir     = "."
	defaultOutputFile   = "shape_analysis_data_out.csv"
	defaultPattern      = "*.csv"
	defaultDelimiter    = ","
	defaultRestSymbol   = "rest"
	defaultFilterOrder  = 5
	defaultFilterCutoff = 0.25
	defaultWorkers      = 1
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			OutputFile: defaultOutputFile,
		},
		Input: Input{
			Pattern:    defaultPattern,
			Delimiter:  defaultDelimiter,
			RestSymbol: defaultRestSymbol,
		},
		Analysis: Analysis{
			FilterOrder:  defaultFilterOrder,
			FilterCutoff: defaultFilterCutoff,
			Workers:      defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
