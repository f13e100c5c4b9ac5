// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/argus-analysis/argus/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the solver settings and the lists of sources, sinks, sanitizers and typestate
// protocols that parametrize the client analyses.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// Private fields are not populated from a yaml file, but computed after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// TaintTrackingProblems lists the taint tracking specifications
	TaintTrackingProblems []TaintSpec `yaml:"taint-tracking-problems"`

	// TypestateProblems lists the typestate protocol specifications
	TypestateProblems []TypestateSpec `yaml:"typestate-problems"`
}

// TaintSpec contains code identifiers that identify a specific taint tracking problem
type TaintSpec struct {
	// Sources is the list of sources of tainted data
	Sources []CodeIdentifier

	// Sinks is the list of sinks that tainted data must not reach
	Sinks []CodeIdentifier

	// Sanitizers is the list of sanitizers for the taint analysis
	Sanitizers []CodeIdentifier
}

// TypestateSpec contains code identifiers that identify a resource protocol for the typestate
// analysis: Open yields a resource, Close finalizes it, Use requires it to not be finalized.
type TypestateSpec struct {
	Open  []CodeIdentifier
	Close []CodeIdentifier
	Use   []CodeIdentifier
}

// Options holds the global options used by the solver and the client analyses.
type Options struct {
	// PkgFilter is a filter for analyses that only consider functions whose package matches the
	// regex prefix
	PkgFilter string `yaml:"pkg-filter"`

	// MaxFactsPerFlow caps the number of facts a single flow function application may return.
	// If <= 0 the default cap applies.
	MaxFactsPerFlow int `yaml:"max-facts-per-flow"`

	// MaxSolverOperations is the operation budget of one solve. If the solver exceeds it, the
	// run stops and the result is reported as incomplete. If <= 0 the default budget applies.
	MaxSolverOperations int `yaml:"max-solver-operations"`

	// ReportFlows enables printing each source-to-sink flow found by the taint analysis
	ReportFlows bool `yaml:"report-flows"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:            "",
		TaintTrackingProblems: nil,
		TypestateProblems:     nil,
		Options: Options{
			PkgFilter:           "",
			MaxFactsPerFlow:     DefaultMaxFactsPerFlow,
			MaxSolverOperations: DefaultMaxSolverOperations,
			ReportFlows:         false,
			LogLevel:            int(InfoLevel),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxFactsPerFlow <= 0 {
		cfg.MaxFactsPerFlow = DefaultMaxFactsPerFlow
	}

	if cfg.MaxSolverOperations <= 0 {
		cfg.MaxSolverOperations = DefaultMaxSolverOperations
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	compileRegexes := func(cid CodeIdentifier) CodeIdentifier { return CompileRegexes(cid) }
	for i := range cfg.TaintTrackingProblems {
		funcutil.MapInPlace(cfg.TaintTrackingProblems[i].Sources, compileRegexes)
		funcutil.MapInPlace(cfg.TaintTrackingProblems[i].Sinks, compileRegexes)
		funcutil.MapInPlace(cfg.TaintTrackingProblems[i].Sanitizers, compileRegexes)
	}
	for i := range cfg.TypestateProblems {
		funcutil.MapInPlace(cfg.TypestateProblems[i].Open, compileRegexes)
		funcutil.MapInPlace(cfg.TypestateProblems[i].Close, compileRegexes)
		funcutil.MapInPlace(cfg.TypestateProblems[i].Use, compileRegexes)
	}

	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the
// config file. If no package filter has been set in the config file, this returns true. If a filter
// was specified but could not be compiled to a regex, the filter string is used as a prefix.
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	}
	if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	}
	return true
}

// Below are functions used to query the configuration on specific facts

func (c Config) isSomeTaintSpecCid(cid CodeIdentifier, f func(t TaintSpec, cid CodeIdentifier) bool) bool {
	for _, x := range c.TaintTrackingProblems {
		if f(x, cid) {
			return true
		}
	}
	return false
}

// IsSomeSource returns true if the code identifier matches any source in the config
func (c Config) IsSomeSource(cid CodeIdentifier) bool {
	return c.isSomeTaintSpecCid(cid, func(t TaintSpec, cid2 CodeIdentifier) bool { return t.IsSource(cid2) })
}

// IsSomeSink returns true if the code identifier matches any sink in the config
func (c Config) IsSomeSink(cid CodeIdentifier) bool {
	return c.isSomeTaintSpecCid(cid, func(t TaintSpec, cid2 CodeIdentifier) bool { return t.IsSink(cid2) })
}

// IsSomeSanitizer returns true if the code identifier matches any sanitizer in the config
func (c Config) IsSomeSanitizer(cid CodeIdentifier) bool {
	return c.isSomeTaintSpecCid(cid, func(t TaintSpec, cid2 CodeIdentifier) bool { return t.IsSanitizer(cid2) })
}

// IsSource returns true if the code identifier matches a source specification in the config file
func (ts TaintSpec) IsSource(cid CodeIdentifier) bool {
	return ExistsCid(ts.Sources, cid.equalOnNonEmptyFields)
}

// IsSink returns true if the code identifier matches a sink specification in the config file
func (ts TaintSpec) IsSink(cid CodeIdentifier) bool {
	return ExistsCid(ts.Sinks, cid.equalOnNonEmptyFields)
}

// IsSanitizer returns true if the code identifier matches a sanitizer specification in the config file
func (ts TaintSpec) IsSanitizer(cid CodeIdentifier) bool {
	return ExistsCid(ts.Sanitizers, cid.equalOnNonEmptyFields)
}

// IsOpen returns true if the code identifier matches an open specification of the typestate protocol
func (ts TypestateSpec) IsOpen(cid CodeIdentifier) bool {
	return ExistsCid(ts.Open, cid.equalOnNonEmptyFields)
}

// IsClose returns true if the code identifier matches a close specification of the typestate protocol
func (ts TypestateSpec) IsClose(cid CodeIdentifier) bool {
	return ExistsCid(ts.Close, cid.equalOnNonEmptyFields)
}

// IsUse returns true if the code identifier matches a use specification of the typestate protocol
func (ts TypestateSpec) IsUse(cid CodeIdentifier) bool {
	return ExistsCid(ts.Use, cid.equalOnNonEmptyFields)
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
