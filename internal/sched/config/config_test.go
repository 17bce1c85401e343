package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := "cores: 4\ncycles: 1000\npolicy: es-rms\nsyncsleep: true\nfrequencies_ghz: [0.8, 1.6, 2.4]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Cores)
	assert.Equal(t, int64(1000), s.Cycles)
	assert.Equal(t, "es-rms", s.Policy)
	assert.True(t, s.SyncSleep)
	assert.Equal(t, []float64{0.8, 1.6, 2.4}, s.Frequencies)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// newTestFlagSet mirrors the subset of cmd/rtsim's flag set ApplyDefaults
// inspects, with the same compiled-in defaults (--cores=4, --policy="rms",
// matching cmd/rtsim/main.go), so a test can distinguish "flag left at its
// default" from "scenario overrides an explicitly-set flag".
func newTestFlagSet(cores *int, cycles, sleepTimeMs *int64, tasksets, policy, results *string, syncSleep, phasing, random, log *bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntVar(cores, "cores", 4, "")
	fs.Int64Var(cycles, "cycles", 1000, "")
	fs.Int64Var(sleepTimeMs, "sleep-time-ms", 10, "")
	fs.StringVar(tasksets, "tasksets", "", "")
	fs.StringVar(policy, "policy", "rms", "")
	fs.StringVar(results, "results", "results.txt", "")
	fs.BoolVar(syncSleep, "syncsleep", false, "")
	fs.BoolVar(phasing, "phasing", false, "")
	fs.BoolVar(random, "random", false, "")
	fs.BoolVar(log, "log", false, "")
	return fs
}

// A scenario field must override a flag's compiled-in non-zero default when
// the user never passed that flag on the command line — the bug this test
// guards against silently ignored Cores/Policy/Results/etc. because their
// cobra defaults are already non-zero.
func TestApplyDefaultsOverridesUnchangedNonZeroDefaults(t *testing.T) {
	var cores int
	var cycles, sleepTimeMs int64
	var tasksets, policy, results string
	var syncSleep, phasing, random, log bool
	fs := newTestFlagSet(&cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)
	require.NoError(t, fs.Parse(nil)) // no CLI args: every flag stays at its default, Changed()==false

	s := &Scenario{Cores: 8, Cycles: 5000, Policy: "sysclock", Results: "scenario.txt", SyncSleep: true}
	s.ApplyDefaults(fs, &cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)

	assert.Equal(t, 8, cores)
	assert.Equal(t, int64(5000), cycles)
	assert.Equal(t, "sysclock", policy)
	assert.Equal(t, "scenario.txt", results)
	assert.True(t, syncSleep)
	assert.False(t, phasing)
}

// A flag the user explicitly passed must win over the scenario, even when
// the scenario also sets that field.
func TestApplyDefaultsFlagWinsWhenExplicitlySet(t *testing.T) {
	var cores int
	var cycles, sleepTimeMs int64
	var tasksets, policy, results string
	var syncSleep, phasing, random, log bool
	fs := newTestFlagSet(&cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)
	require.NoError(t, fs.Parse([]string{"--policy=sysclock"}))

	s := &Scenario{Cores: 8, Policy: "rms"}
	s.ApplyDefaults(fs, &cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)

	assert.Equal(t, 8, cores)            // not passed: scenario wins
	assert.Equal(t, "sysclock", policy) // explicitly passed: flag wins
}

func TestApplyDefaultsNilScenarioIsNoop(t *testing.T) {
	var cores int
	var cycles, sleepTimeMs int64
	var tasksets, policy, results string
	var syncSleep, phasing, random, log bool
	fs := newTestFlagSet(&cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)
	require.NoError(t, fs.Parse(nil))

	var s *Scenario
	s.ApplyDefaults(fs, &cores, &cycles, &sleepTimeMs, &tasksets, &policy, &results, &syncSleep, &phasing, &random, &log)
	assert.Equal(t, 4, cores)
}
