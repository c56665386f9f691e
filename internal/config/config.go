// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/corpus"
	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/search"
	"github.com/aria-lang/pepmap-go/internal/variant"
	"github.com/spf13/viper"
)

// Error is a configuration error on one setting.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MatchingConfig selects how query residues match corpus residues
type MatchingConfig struct {
	// string, amino-acid or indistinguishable
	Type string `mapstructure:"type"`

	// share of a peptide's residues corpus wildcards may stand in for
	LimitX float64 `mapstructure:"limit-x"`
}

// ToleranceConfig is the fragment mass accuracy
type ToleranceConfig struct {
	Value float64 `mapstructure:"value"`

	// da or ppm
	Unit string `mapstructure:"unit"`
}

// ModificationConfig picks modifications by identifier
type ModificationConfig struct {
	// optional YAML library merged over the built-in one
	Catalog string `mapstructure:"catalog"`

	Fixed    []string `mapstructure:"fixed"`
	Variable []string `mapstructure:"variable"`
}

// VariantConfig is the variant budget
type VariantConfig struct {
	// none, generic, specific or fixed
	Type string `mapstructure:"type"`

	MaxTotal         int `mapstructure:"max-total"`
	MaxSubstitutions int `mapstructure:"max-substitutions"`
	MaxInsertions    int `mapstructure:"max-insertions"`
	MaxDeletions     int `mapstructure:"max-deletions"`

	// all, single-base or a list like "A>G,D>E"
	Matrix string `mapstructure:"matrix"`

	// TSV of fixed variants, for the fixed type
	Table string `mapstructure:"table"`
}

// SearchConfig bounds the work done per query and per index
type SearchConfig struct {
	MaxPaths   int `mapstructure:"max-paths"`
	Workers    int `mapstructure:"workers"`
	SampleRate int `mapstructure:"sample-rate"`
}

// ServerConfig is where the HTTP server listens
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file and those
// available from the command line
type Config struct {
	// path to the protein FASTA file
	FASTA string `mapstructure:"fasta"`

	// append reversed decoys to the index
	Decoys bool `mapstructure:"decoys"`

	// suffix of decoy accessions
	DecoyTag string `mapstructure:"decoy-tag"`

	Matching      MatchingConfig     `mapstructure:"matching"`
	Tolerance     ToleranceConfig    `mapstructure:"tolerance"`
	Modifications ModificationConfig `mapstructure:"modifications"`
	Variants      VariantConfig      `mapstructure:"variants"`
	Search        SearchConfig       `mapstructure:"search"`
	Server        ServerConfig       `mapstructure:"server"`
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("decoys", false)
	v.SetDefault("decoy-tag", corpus.DefaultDecoyTag)
	v.SetDefault("matching.type", search.StringMatching.String())
	v.SetDefault("matching.limit-x", 0.25)
	v.SetDefault("tolerance.value", 0.02)
	v.SetDefault("tolerance.unit", "da")
	v.SetDefault("variants.type", variant.None.String())
	v.SetDefault("variants.matrix", "all")
	v.SetDefault("search.max-paths", search.DefaultMaxPaths)
	v.SetDefault("search.workers", 4)
	v.SetDefault("search.sample-rate", fmindex.DefaultSampleRate)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
}

// New returns a new Config populated by v, either from a
// settings file and/or command line arguments
func New(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if c.Search.Workers < 1 {
		c.Search.Workers = 1
	}
	return c, nil
}

// Load reads a settings file, when given, over the defaults.
func Load(filename string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &Error{Key: "file", Err: err}
		}
	}
	return New(v)
}

// Library returns the built-in modifications merged with the configured
// catalog file.
func (c Config) Library() (modification.Library, error) {
	lib := modification.DefaultLibrary()
	if c.Modifications.Catalog == "" {
		return lib, nil
	}
	extra, err := modification.ReadLibrary(c.Modifications.Catalog)
	if err != nil {
		return nil, &Error{Key: "modifications.catalog", Err: err}
	}
	return lib.Merge(extra), nil
}

// Resources are the file backed parts of the search settings.
type Resources struct {
	Library modification.Library
	// Table is nil when no fixed variant table is configured.
	Table *variant.FixedTable
}

// LoadResources reads the modification catalog and the fixed variant table.
// A configured table is read whatever the variant type, so that it can be
// selected later.
func (c Config) LoadResources() (Resources, error) {
	lib, err := c.Library()
	if err != nil {
		return Resources{}, err
	}
	r := Resources{Library: lib}
	if c.Variants.Table != "" {
		if r.Table, err = variant.ReadFixedTable(c.Variants.Table); err != nil {
			return Resources{}, &Error{Key: "variants.table", Err: err}
		}
	}
	return r, nil
}

// policy builds the variant policy over a loaded fixed variant table.
func (c Config) policy(table *variant.FixedTable) (variant.Policy, error) {
	vc := c.Variants
	t, err := variant.ParseType(vc.Type)
	if err != nil {
		return variant.Policy{}, &Error{Key: "variants.type", Err: err}
	}

	var p variant.Policy
	switch t {
	case variant.None:
		return variant.NoVariants(), nil
	case variant.GenericType:
		p, err = variant.Generic(vc.MaxTotal)
	case variant.SpecificType:
		var matrix *variant.SubstitutionMatrix
		matrix, err = variant.ParseSubstitutions(vc.Matrix)
		if err != nil {
			return variant.Policy{}, &Error{Key: "variants.matrix", Err: err}
		}
		p, err = variant.Specific(vc.MaxSubstitutions, vc.MaxInsertions, vc.MaxDeletions, matrix)
	case variant.FixedType:
		if table == nil {
			return variant.Policy{}, &Error{Key: "variants.table", Err: fmt.Errorf("fixed variants need a table")}
		}
		p, err = variant.Fixed(table)
	}
	if err != nil {
		return variant.Policy{}, &Error{Key: "variants", Err: err}
	}
	return p, nil
}

// Settings builds validated search settings, reading the files they refer
// to.
func (c Config) Settings() (search.Settings, error) {
	r, err := c.LoadResources()
	if err != nil {
		return search.DefaultSettings(), err
	}
	return c.SettingsWith(r)
}

// SettingsWith builds validated search settings over already loaded
// resources.
func (c Config) SettingsWith(r Resources) (search.Settings, error) {
	s := search.DefaultSettings()

	m, err := search.ParseMatchingType(c.Matching.Type)
	if err != nil {
		return s, &Error{Key: "matching.type", Err: err}
	}
	s.Matching = m
	s.LimitX = c.Matching.LimitX

	unit, err := search.ParseUnit(c.Tolerance.Unit)
	if err != nil {
		return s, &Error{Key: "tolerance.unit", Err: err}
	}
	s.Tolerance = search.Tolerance{Value: c.Tolerance.Value, Unit: unit}

	if len(c.Modifications.Fixed)+len(c.Modifications.Variable) > 0 {
		lib := r.Library
		if lib == nil {
			lib = modification.DefaultLibrary()
		}
		cat, err := lib.Catalog(trimAll(c.Modifications.Fixed), trimAll(c.Modifications.Variable))
		if err != nil {
			return s, &Error{Key: "modifications", Err: err}
		}
		s.Catalog = cat
	}

	if s.Policy, err = c.policy(r.Table); err != nil {
		return s, err
	}
	s.MaxPaths = c.Search.MaxPaths

	if err := s.Validate(); err != nil {
		return s, &Error{Key: "search", Err: err}
	}
	return s, nil
}

// Addr returns the server listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func trimAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
