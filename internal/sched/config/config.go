// Package config loads an optional YAML scenario file used to pre-fill
// rtsim's CLI flags, so a whole run configuration can be checked into a repo
// instead of assembled from a long flag line.
package config

import (
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Scenario mirrors the CLI surface: every field is optional, and a zero
// value means "let the flag default (or explicit flag) win".
type Scenario struct {
	Cores       int       `yaml:"cores"`
	Cycles      int64     `yaml:"cycles"`
	SleepTimeMs int64     `yaml:"sleep_time_ms"`
	Tasksets    string    `yaml:"tasksets"`
	Policy      string    `yaml:"policy"`
	SyncSleep   bool      `yaml:"syncsleep"`
	Phasing     bool      `yaml:"phasing"`
	Results     string    `yaml:"results"`
	Random      bool      `yaml:"random"`
	Log         bool      `yaml:"log"`
	Frequencies []float64 `yaml:"frequencies_ghz"`
	PowerTable  string    `yaml:"power_table"`
}

// Load reads and parses a scenario file from path.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults overlays the scenario's fields onto already-parsed flag
// values, flag-wins-if-explicitly-set: flags carries the same *pflag.FlagSet
// cobra parsed the command line into, so "did the user actually pass
// --cores" is answered by flags.Changed, not by comparing the flag's current
// value to its zero value (which would also match a flag the user explicitly
// set to 0/""/false, and would never fire for a flag whose compiled-in
// default is already non-zero).
func (s *Scenario) ApplyDefaults(flags *pflag.FlagSet, cores *int, cycles *int64, sleepTimeMs *int64, tasksets, policy, results *string, syncSleep, phasing, random, log *bool) {
	if s == nil {
		return
	}
	if !flags.Changed("cores") && s.Cores != 0 {
		*cores = s.Cores
	}
	if !flags.Changed("cycles") && s.Cycles != 0 {
		*cycles = s.Cycles
	}
	if !flags.Changed("sleep-time-ms") && s.SleepTimeMs != 0 {
		*sleepTimeMs = s.SleepTimeMs
	}
	if !flags.Changed("tasksets") && s.Tasksets != "" {
		*tasksets = s.Tasksets
	}
	if !flags.Changed("policy") && s.Policy != "" {
		*policy = s.Policy
	}
	if !flags.Changed("results") && s.Results != "" {
		*results = s.Results
	}
	if !flags.Changed("syncsleep") && s.SyncSleep {
		*syncSleep = s.SyncSleep
	}
	if !flags.Changed("phasing") && s.Phasing {
		*phasing = s.Phasing
	}
	if !flags.Changed("random") && s.Random {
		*random = s.Random
	}
	if !flags.Changed("log") && s.Log {
		*log = s.Log
	}
}
