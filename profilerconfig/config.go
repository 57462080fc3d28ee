/*
DESCRIPTION
  config.go defines Config, the camera configuration struct described in
  spec.md §6, and its Validate/Update pair.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package profilerconfig provides the camera configuration struct and the
// declarative variable table used to validate and update it from string
// key/value pairs (a config file, a UI form post, or a CLI flag).
//
// Grounded on revid/config/config.go and revid/config/variables.go's
// Variables table idiom: each field gets an entry with a Name, an Update
// function that parses a string into the field, and an optional Validate
// function that clamps out-of-range values and logs the substitution.
package profilerconfig

import (
	"strconv"

	"go.uber.org/multierr"

	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/internal/logging"
)

// Config map keys, matching spec.md §6's nine recognized keys.
const (
	KeyNormalize          = "normalize"
	KeySubtractBackground = "subtractBackground"
	KeyMaxIters           = "maxIters"
	KeyPrecision          = "precision"
	KeyCornerFraction     = "cornerFraction"
	KeyNT                 = "nT"
	KeyMaskDiameter       = "maskDiam"
	KeyApertureEnabled    = "aperture.enabled"
	KeyApertureX1         = "aperture.x1"
	KeyApertureY1         = "aperture.y1"
	KeyApertureX2         = "aperture.x2"
	KeyApertureY2         = "aperture.y2"
)

// Defaults, per spec.md §6. maxIters defaults to 0 — spec.md §4.3.3's
// "compute once" mode, with no iterative aperture refinement.
const (
	defaultMaxIters       = 0
	defaultPrecision      = 0.05
	defaultCornerFraction = 0.035
	defaultNT             = 3.0
	defaultMaskDiameter   = 3.0
)

// Config is the full set of tunables a camera session is configured with.
type Config struct {
	Normalize          bool
	SubtractBackground bool
	MaxIters           int
	Precision          float64
	CornerFraction     float64
	NT                 float64
	MaskDiameter       float64
	ApertureEnabled    bool
	ApertureX1         int
	ApertureY1         int
	ApertureX2         int
	ApertureY2         int

	Logger logging.Logger
}

// New returns a Config populated with spec.md §6's defaults.
func New(logger logging.Logger) *Config {
	return &Config{
		Normalize:          true,
		SubtractBackground: true,
		MaxIters:           defaultMaxIters,
		Precision:          defaultPrecision,
		CornerFraction:     defaultCornerFraction,
		NT:                 defaultNT,
		MaskDiameter:       defaultMaskDiameter,
		Logger:             logger,
	}
}

// Aperture returns the analysis aperture as a beamcalc.ROI, or an empty ROI
// if aperture restriction is disabled (background.Run then defaults to the
// full frame).
func (c *Config) Aperture() beamcalc.ROI {
	if !c.ApertureEnabled {
		return beamcalc.ROI{}
	}
	return beamcalc.ROI{X1: c.ApertureX1, Y1: c.ApertureY1, X2: c.ApertureX2, Y2: c.ApertureY2}
}

// Validate clamps every field governed by a Variables entry with a
// Validate func, folding the resulting clamp descriptions together with
// go.uber.org/multierr. The returned error is non-nil only to describe
// clamps already applied — no field ever makes Validate fail outright,
// mirroring revid/config's "clamp and log" policy (spec.md §7); callers
// should log it as a warning, not treat it as a fatal config error.
func (c *Config) Validate() error {
	var err error
	for _, v := range Variables {
		if v.Validate != nil {
			err = multierr.Append(err, v.Validate(c))
		}
	}
	return err
}

// Update applies string key/value pairs to the Config, parsing each value
// according to its Variables table entry. Unknown keys are ignored.
func (c *Config) Update(vars map[string]string) {
	for _, v := range Variables {
		if s, ok := vars[v.Name]; ok && v.Update != nil {
			v.Update(c, s)
		}
	}
}

// LogInvalidField logs a clamp/substitution the way revid/config does.
func (c *Config) LogInvalidField(name string, def interface{}) {
	if c.Logger != nil {
		c.Logger.Warning(name+" out of range, defaulting", name, def)
	}
}

func parseFloat(name, v string, c *Config) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warning("invalid float param", "field", name, "value", v)
		}
		return 0
	}
	return f
}

func parseInt(name, v string, c *Config) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warning("invalid int param", "field", name, "value", v)
		}
		return 0
	}
	return n
}

func parseBool(name, v string, c *Config) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warning("invalid bool param", "field", name, "value", v)
		}
		return false
	}
	return b
}
