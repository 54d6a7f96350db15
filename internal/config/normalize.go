package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeProcessing()
	c.normalizeDatabase()
	c.normalizeMapping()
	c.normalizeLRID()
	c.normalizeRender()
	c.normalizePrint()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() {
	if len(c.Watch.Patterns) == 0 {
		c.Watch.Patterns = []string{"*.xlsx", "*.xls", "*.csv"}
	}
	if c.Watch.StabilizationSeconds <= 0 {
		c.Watch.StabilizationSeconds = defaultStabilizationSeconds
	}
}

func (c *Config) normalizeProcessing() {
	if c.Processing.ChunkSize <= 0 {
		c.Processing.ChunkSize = defaultChunkSize
	}
	if c.Processing.CheckpointInterval <= 0 {
		c.Processing.CheckpointInterval = defaultCheckpointInterval
	}
	if c.Processing.RenderBatchSize <= 0 {
		c.Processing.RenderBatchSize = defaultRenderBatchSize
	}
}

func (c *Config) normalizeDatabase() {
	if strings.TrimSpace(c.Database.TableName) == "" {
		c.Database.TableName = defaultTableName
	}
	if c.Database.BatchSize <= 0 {
		c.Database.BatchSize = defaultDBBatchSize
	}
	if c.Database.RetryAttempts <= 0 {
		c.Database.RetryAttempts = defaultRetryAttempts
	}
	if c.Database.RetryDelaySeconds < 0 {
		c.Database.RetryDelaySeconds = defaultRetryDelaySeconds
	}
}

func (c *Config) normalizeMapping() {
	c.Mapping.NaturalKey = strings.TrimSpace(c.Mapping.NaturalKey)
	for i := range c.Mapping.Columns {
		col := &c.Mapping.Columns[i]
		col.Source = strings.TrimSpace(col.Source)
		col.Field = strings.TrimSpace(col.Field)
		col.Type = strings.ToLower(strings.TrimSpace(col.Type))
		if col.Type == "" {
			col.Type = "string"
		}
	}
}

func (c *Config) normalizeLRID() {
	if strings.TrimSpace(c.LRID.Pattern) == "" {
		c.LRID.Pattern = defaultIDPattern
	}
	if c.LRID.SequenceWidth <= 0 {
		c.LRID.SequenceWidth = defaultSequenceWidth
	}
	c.LRID.BranchCode = strings.TrimSpace(c.LRID.BranchCode)
}

func (c *Config) normalizeRender() {
	if c.Render.ItemsPerPage <= 0 {
		c.Render.ItemsPerPage = defaultItemsPerPage
	}
}

func (c *Config) normalizePrint() {
	if c.Print.Copies <= 0 {
		c.Print.Copies = 1
	}
	if c.Print.TimeoutSeconds <= 0 {
		c.Print.TimeoutSeconds = defaultPrintTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
