/*
DESCRIPTION
  variables.go provides the declarative Variables table: one entry per
  Config field, giving its string key, an Update parser and an optional
  Validate clamp, per spec.md §6/§7.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package profilerconfig

import "fmt"

// Variables describes every key this package's Config understands, mirroring
// revid/config/variables.go's table of {Name, Update, Validate} triples.
// Validate returns a non-nil error describing the clamp it performed, which
// Config.Validate folds across every field with multierr.
var Variables = []struct {
	Name     string
	Update   func(*Config, string)
	Validate func(*Config) error
}{
	{
		Name:   KeyNormalize,
		Update: func(c *Config, v string) { c.Normalize = parseBool(KeyNormalize, v, c) },
	},
	{
		Name:   KeySubtractBackground,
		Update: func(c *Config, v string) { c.SubtractBackground = parseBool(KeySubtractBackground, v, c) },
	},
	{
		Name:   KeyMaxIters,
		Update: func(c *Config, v string) { c.MaxIters = parseInt(KeyMaxIters, v, c) },
		Validate: func(c *Config) error {
			if c.MaxIters < 0 || c.MaxIters > 50 {
				c.LogInvalidField(KeyMaxIters, defaultMaxIters)
				old := c.MaxIters
				c.MaxIters = defaultMaxIters
				return fmt.Errorf("%s: %d out of range [0,50], defaulted to %d", KeyMaxIters, old, defaultMaxIters)
			}
			return nil
		},
	},
	{
		Name:   KeyPrecision,
		Update: func(c *Config, v string) { c.Precision = parseFloat(KeyPrecision, v, c) },
		Validate: func(c *Config) error {
			if c.Precision <= 0 || c.Precision >= 1 {
				c.LogInvalidField(KeyPrecision, defaultPrecision)
				old := c.Precision
				c.Precision = defaultPrecision
				return fmt.Errorf("%s: %g out of range (0,1), defaulted to %g", KeyPrecision, old, defaultPrecision)
			}
			return nil
		},
	},
	{
		Name:   KeyCornerFraction,
		Update: func(c *Config, v string) { c.CornerFraction = parseFloat(KeyCornerFraction, v, c) },
		Validate: func(c *Config) error {
			if c.CornerFraction <= 0 || c.CornerFraction >= 0.5 {
				c.LogInvalidField(KeyCornerFraction, defaultCornerFraction)
				old := c.CornerFraction
				c.CornerFraction = defaultCornerFraction
				return fmt.Errorf("%s: %g out of range (0,0.5), defaulted to %g", KeyCornerFraction, old, defaultCornerFraction)
			}
			return nil
		},
	},
	{
		Name:   KeyNT,
		Update: func(c *Config, v string) { c.NT = parseFloat(KeyNT, v, c) },
		Validate: func(c *Config) error {
			if c.NT <= 0 || c.NT >= 10 {
				c.LogInvalidField(KeyNT, defaultNT)
				old := c.NT
				c.NT = defaultNT
				return fmt.Errorf("%s: %g out of range (0,10), defaulted to %g", KeyNT, old, defaultNT)
			}
			return nil
		},
	},
	{
		Name:   KeyMaskDiameter,
		Update: func(c *Config, v string) { c.MaskDiameter = parseFloat(KeyMaskDiameter, v, c) },
		Validate: func(c *Config) error {
			if c.MaskDiameter <= 1 || c.MaskDiameter >= 10 {
				c.LogInvalidField(KeyMaskDiameter, defaultMaskDiameter)
				old := c.MaskDiameter
				c.MaskDiameter = defaultMaskDiameter
				return fmt.Errorf("%s: %g out of range (1,10), defaulted to %g", KeyMaskDiameter, old, defaultMaskDiameter)
			}
			return nil
		},
	},
	{
		Name:   KeyApertureEnabled,
		Update: func(c *Config, v string) { c.ApertureEnabled = parseBool(KeyApertureEnabled, v, c) },
	},
	{
		Name:   KeyApertureX1,
		Update: func(c *Config, v string) { c.ApertureX1 = parseInt(KeyApertureX1, v, c) },
	},
	{
		Name:   KeyApertureY1,
		Update: func(c *Config, v string) { c.ApertureY1 = parseInt(KeyApertureY1, v, c) },
	},
	{
		Name:   KeyApertureX2,
		Update: func(c *Config, v string) { c.ApertureX2 = parseInt(KeyApertureX2, v, c) },
	},
	{
		Name:   KeyApertureY2,
		Update: func(c *Config, v string) { c.ApertureY2 = parseInt(KeyApertureY2, v, c) },
	},
}
