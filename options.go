// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "fmt"
import "log/slog"
import "maps"
import "strings"

// IntersectAlgorithm chooses the kernel the intersect selector uses for
// large 8 byte aligned fingerprints.
type IntersectAlgorithm uint8

const (
	// IntersectAuto uses Lauradoux tree merging where legal and a
	// 32-bit table lookup elsewhere.
	IntersectAuto IntersectAlgorithm = iota

	// IntersectLUT always uses the 32-bit table lookup, even where
	// Lauradoux would be legal.  For tuning and debugging.
	IntersectLUT

	// IntersectNative uses the active method of the align8-large
	// class (POPCNT where available) instead of Lauradoux.
	IntersectNative
)

var intersectNames = [...]string{
	IntersectAuto:   "auto",
	IntersectLUT:    "lut",
	IntersectNative: "native",
}

func (a IntersectAlgorithm) String() string {
	if int(a) >= len(intersectNames) {
		return fmt.Sprintf("IntersectAlgorithm(%d)", uint8(a))
	}

	return intersectNames[a]
}

// ParseIntersectAlgorithm parses "auto", "lut", or "native", ignoring
// case.  The empty string means IntersectAuto.
func ParseIntersectAlgorithm(s string) (IntersectAlgorithm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IntersectAuto, nil
	}

	for i, name := range intersectNames {
		if strings.EqualFold(name, s) {
			return IntersectAlgorithm(i), nil
		}
	}

	return IntersectAuto, fmt.Errorf("%w: %q", ErrUnknownIntersect, s)
}

// Config is the configuration of a Selector.  The zero Config is not
// the default; use DefaultConfig.
type Config struct {
	// Intersect picks the kernel for large aligned intersections.
	Intersect IntersectAlgorithm

	// PreferWideWords makes the popcount selector use the
	// align8-small class for 8 byte aligned records shorter than
	// 96 bytes instead of the 32-bit table lookup.
	PreferWideWords bool

	// ClassMethods overrides the active method of alignment
	// classes.  Classes not listed use the detected method.
	ClassMethods map[Alignment]Method

	// ReportPopcount and ReportIntersect enable a notice each time
	// the respective selector picks a different method than the one
	// it last reported.
	ReportPopcount  bool
	ReportIntersect bool

	// Logger receives the notices.  nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by Default().
func DefaultConfig() Config {
	return Config{
		Intersect:       IntersectAuto,
		PreferWideWords: true,
	}
}

// Validate checks that c only names known values and that every class
// override is usable on this machine.
func (c Config) Validate() error {
	if int(c.Intersect) >= len(intersectNames) {
		return fmt.Errorf("%w: %d", ErrUnknownIntersect, c.Intersect)
	}

	for a, m := range c.ClassMethods {
		if a >= numAlignments {
			return fmt.Errorf("%w: %d", ErrUnknownAlignment, a)
		}

		if m >= numMethods {
			return fmt.Errorf("%w: %d", ErrUnknownMethod, m)
		}

		if alignments[a].alignment%methods[m].alignment != 0 {
			return fmt.Errorf("%w: %s needs %d bytes, %s has %d",
				ErrMethodNotInClass, m, methods[m].alignment, a, alignments[a].alignment)
		}

		if !methods[m].available {
			return fmt.Errorf("%w: %s", ErrMethodUnavailable, m)
		}
	}

	return nil
}

// Option configures a Selector.
type Option func(*Config)

// WithIntersectAlgorithm sets Config.Intersect.
func WithIntersectAlgorithm(a IntersectAlgorithm) Option {
	return func(c *Config) {
		c.Intersect = a
	}
}

// WithPreferWideWords sets Config.PreferWideWords.
func WithPreferWideWords(prefer bool) Option {
	return func(c *Config) {
		c.PreferWideWords = prefer
	}
}

// WithClassMethod makes m the method used for alignment class a.
func WithClassMethod(a Alignment, m Method) Option {
	return func(c *Config) {
		if c.ClassMethods == nil {
			c.ClassMethods = make(map[Alignment]Method)
		}

		c.ClassMethods[a] = m
	}
}

// WithReportPopcount sets Config.ReportPopcount.
func WithReportPopcount(report bool) Option {
	return func(c *Config) {
		c.ReportPopcount = report
	}
}

// WithReportIntersect sets Config.ReportIntersect.
func WithReportIntersect(report bool) Option {
	return func(c *Config) {
		c.ReportIntersect = report
	}
}

// WithLogger sets the logger notices go to.  nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithConfig replaces the whole configuration.  Options after it
// modify the given configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
		c.ClassMethods = maps.Clone(cfg.ClassMethods)
	}
}
