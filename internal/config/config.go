package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/codec"
	"github.com/Amr-9/VanityHunter/pkg/generator/cpu"
)

// Errors
var (
	ErrNoTaskSpecified = errors.New("must specify either --config or --currency with --prefix or --suffix")
	ErrBothPatterns    = errors.New("--prefix and --suffix are mutually exclusive")
	ErrTaskAndBatch    = errors.New("--config cannot be combined with a single task")
	ErrNegativeWorkers = errors.New("--workers must not be negative")
	ErrNegativeCount   = errors.New("--count must not be negative")
)

// EnvPrefix starts every environment override.
const EnvPrefix = "VANITY_"

// Config holds the application configuration
type Config struct {
	ConfigFile   string // Batch task file
	Currency     string
	Prefix       string
	Suffix       string
	Count        int
	IgnoreCase   bool
	Priority     int
	Workers      int // 0 sizes from difficulty
	OutputDir    string
	LogLevel     string
	LogJSON      bool
	ScalarPolicy string
	AssumeYes    bool // Skip the long-running confirmation
	HighPriority bool // Raise the OS scheduling priority
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Count:        1,
		Priority:     1,
		OutputDir:    "CSV",
		LogLevel:     "info",
		ScalarPolicy: codec.Rejection.String(),
	}
}

// LoadEnv applies VANITY_* overrides. Values in the process environment win
// over values read from envFile; a missing envFile is not an error.
func (c *Config) LoadEnv(envFile string) error {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}

	strs := map[string]*string{
		"CONFIG":        &c.ConfigFile,
		"OUTPUT_DIR":    &c.OutputDir,
		"LOG_LEVEL":     &c.LogLevel,
		"SCALAR_POLICY": &c.ScalarPolicy,
	}
	for key, dst := range strs {
		if v, ok := vars[EnvPrefix+key]; ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKERS": &c.Workers,
	}
	for key, dst := range ints {
		if v, ok := vars[EnvPrefix+key]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"YES":           &c.AssumeYes,
		"HIGH_PRIORITY": &c.HighPriority,
		"LOG_JSON":      &c.LogJSON,
	}
	for key, dst := range bools {
		if v, ok := vars[EnvPrefix+key]; ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	single := c.Currency != "" || c.Prefix != "" || c.Suffix != ""
	switch {
	case c.ConfigFile != "" && single:
		return ErrTaskAndBatch
	case c.ConfigFile == "" && (c.Currency == "" || (c.Prefix == "" && c.Suffix == "")):
		return ErrNoTaskSpecified
	case c.Prefix != "" && c.Suffix != "":
		return ErrBothPatterns
	case c.Workers < 0:
		return ErrNegativeWorkers
	case c.Count < 0:
		return ErrNegativeCount
	}
	if _, err := codec.ParseScalarPolicy(c.ScalarPolicy); err != nil {
		return err
	}
	return nil
}

// IsBatch reports whether tasks come from a file.
func (c *Config) IsBatch() bool {
	return c.ConfigFile != ""
}

// SingleTask builds the task described by the single-task flags.
func (c *Config) SingleTask() (generator.Task, error) {
	currency, err := generator.ParseCurrency(c.Currency)
	if err != nil {
		return generator.Task{}, err
	}
	task := generator.Task{
		Currency:    currency,
		PatternType: generator.Prefix,
		Pattern:     c.Prefix,
		TargetCount: c.Count,
		IgnoreCase:  c.IgnoreCase,
		Priority:    c.Priority,
	}
	if c.Suffix != "" {
		task.PatternType = generator.Suffix
		task.Pattern = c.Suffix
	}
	// EVM patterns are given without 0x.
	if currency.IsEVM() {
		task.Pattern = strings.TrimPrefix(task.Pattern, "0x")
	}
	return task, task.Validate()
}

// EngineOptions returns the engine tuning for this configuration.
func (c *Config) EngineOptions(log zerolog.Logger) (cpu.Options, error) {
	policy, err := codec.ParseScalarPolicy(c.ScalarPolicy)
	if err != nil {
		return cpu.Options{}, err
	}
	opts := cpu.DefaultOptions()
	opts.Workers = c.Workers
	opts.ScalarPolicy = policy
	opts.Logger = log
	return opts, nil
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	if c.IsBatch() {
		return "batch file: " + c.ConfigFile
	}
	if c.Prefix != "" {
		return fmt.Sprintf("%s prefix: %s", strings.ToUpper(c.Currency), c.Prefix)
	}
	return fmt.Sprintf("%s suffix: %s", strings.ToUpper(c.Currency), c.Suffix)
}
