package config

import (
	"errors"
	"fmt"
	"strings"
)

var columnTypes = map[string]struct{}{
	"string":  {},
	"integer": {},
	"float":   {},
	"date":    {},
	"time":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateLRID(); err != nil {
		return err
	}
	if err := c.validatePrint(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if len(c.Watch.Patterns) == 0 {
		return errors.New("watch.patterns must list at least one file pattern")
	}
	for _, pattern := range c.Watch.Patterns {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("watch.patterns must not contain empty patterns")
		}
	}
	return nil
}

func (c *Config) validateMapping() error {
	if len(c.Mapping.Columns) == 0 {
		return errors.New("mapping.columns must list at least one column")
	}

	fields := make(map[string]struct{}, len(c.Mapping.Columns))
	sources := make(map[string]struct{}, len(c.Mapping.Columns))
	for _, col := range c.Mapping.Columns {
		if col.Source == "" {
			return errors.New("mapping.columns: source must be set on every column")
		}
		if col.Field == "" {
			return fmt.Errorf("mapping.columns: field must be set for source %q", col.Source)
		}
		if _, ok := columnTypes[col.Type]; !ok {
			return fmt.Errorf("mapping.columns: unsupported type %q for field %q (string, integer, float, date, time)", col.Type, col.Field)
		}
		if _, dup := fields[col.Field]; dup {
			return fmt.Errorf("mapping.columns: duplicate field %q", col.Field)
		}
		if _, dup := sources[col.Source]; dup {
			return fmt.Errorf("mapping.columns: duplicate source column %q", col.Source)
		}
		fields[col.Field] = struct{}{}
		sources[col.Source] = struct{}{}
	}

	if c.Mapping.NaturalKey == "" {
		return errors.New("mapping.natural_key must be set")
	}
	if _, ok := fields[c.Mapping.NaturalKey]; !ok {
		return fmt.Errorf("mapping.natural_key %q is not reachable through mapping.columns", c.Mapping.NaturalKey)
	}
	for _, col := range c.Mapping.Columns {
		if col.Field == c.Mapping.NaturalKey && !col.Required {
			return fmt.Errorf("mapping.natural_key %q must be a required column", c.Mapping.NaturalKey)
		}
	}
	return nil
}

func (c *Config) validateLRID() error {
	if !strings.Contains(c.LRID.Pattern, "{seq}") {
		return errors.New("lrid.pattern must contain the {seq} placeholder")
	}
	return nil
}

func (c *Config) validatePrint() error {
	if !c.Print.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Print.PrinterName) == "" {
		return errors.New("print.printer_name must be set when print.enabled is true")
	}
	return nil
}
