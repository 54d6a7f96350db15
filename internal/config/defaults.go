package config

const (
	defaultWatchDir             = "~/lorry/inbox"
	defaultOutputDir            = "~/lorry/out"
	defaultDataDir              = "~/.local/share/lorry"
	defaultLogDir               = "~/.local/share/lorry/logs"
	defaultStabilizationSeconds = 5
	defaultChunkSize            = 500
	defaultCheckpointInterval   = 100
	defaultRenderBatchSize      = 50
	defaultTableName            = "lr_records"
	defaultDBBatchSize          = 100
	defaultRetryAttempts        = 3
	defaultRetryDelaySeconds    = 5
	defaultIDPattern            = "{branch}{date}{seq}"
	defaultSequenceWidth        = 4
	defaultItemsPerPage         = 2
	defaultPrintTimeoutSeconds  = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults. The default
// column mapping matches the standard lorry-receipt manifest layout.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:  defaultWatchDir,
			OutputDir: defaultOutputDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		Watch: Watch{
			Patterns:              []string{"*.xlsx", "*.xls", "*.csv"},
			IgnorePatterns:        []string{"~$*", "*.tmp", ".*"},
			StabilizationSeconds:  defaultStabilizationSeconds,
			DeleteAfterProcessing: false,
		},
		Processing: Processing{
			ChunkSize:          defaultChunkSize,
			CheckpointInterval: defaultCheckpointInterval,
			RenderBatchSize:    defaultRenderBatchSize,
		},
		Database: Database{
			TableName:         defaultTableName,
			BatchSize:         defaultDBBatchSize,
			RetryAttempts:     defaultRetryAttempts,
			RetryDelaySeconds: defaultRetryDelaySeconds,
		},
		Mapping: Mapping{
			NaturalKey: "invoice_number",
			Columns: []Column{
				{Source: "Invoice No", Field: "invoice_number", Type: "string", Required: true},
				{Source: "Date", Field: "date", Type: "date", Required: true},
				{Source: "Consignor", Field: "consignor_name", Type: "string", Required: true},
				{Source: "Consignee", Field: "consignee_name", Type: "string", Required: true},
				{Source: "Weight", Field: "weight", Type: "float", Required: false},
				{Source: "Packages", Field: "packages", Type: "integer", Required: false},
				{Source: "Destination", Field: "destination", Type: "string", Required: true},
			},
		},
		LRID: LRID{
			Pattern:       defaultIDPattern,
			SequenceWidth: defaultSequenceWidth,
		},
		Render: Render{
			ItemsPerPage: defaultItemsPerPage,
		},
		Print: Print{
			Enabled:        false,
			Copies:         1,
			TimeoutSeconds: defaultPrintTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
