package jsfunc

import (
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// DefaultMaxBoundArgs bounds the argument count of a bound function so that
// adding a previously bound count can never overflow a 32-bit counter.
const DefaultMaxBoundArgs = 0x20000000

type Config struct {
	// MaxBoundArgs may lower the bound-argument limit; zero means default.
	MaxBoundArgs int `yaml:"maxBoundArgs"`
	// FuncFileNameProperty enables the non-standard fileName property.
	FuncFileNameProperty bool `yaml:"funcFileNameProperty"`
	// HeapLimit caps the value slots owned by objects; zero is unlimited.
	HeapLimit int  `yaml:"heapLimit"`
	Debug     bool `yaml:"debug"`

	Compiler  Compiler  `yaml:"-"`
	Executor  Executor  `yaml:"-"`
	LogOutput io.Writer `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxBoundArgs: DefaultMaxBoundArgs,
	}
}

func ParseConfig(raw []byte) (cfg Config, err error) {
	cfg = DefaultConfig()
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg.normalize()
}

func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(raw)
}

func (cfg Config) normalize() (Config, error) {
	switch {
	case cfg.MaxBoundArgs == 0:
		cfg.MaxBoundArgs = DefaultMaxBoundArgs
	case cfg.MaxBoundArgs < 0:
		return cfg, fmt.Errorf("invalid maxBoundArgs %d", cfg.MaxBoundArgs)
	case cfg.MaxBoundArgs > DefaultMaxBoundArgs:
		cfg.MaxBoundArgs = DefaultMaxBoundArgs
	}
	if cfg.HeapLimit < 0 {
		return cfg, fmt.Errorf("invalid heapLimit %d", cfg.HeapLimit)
	}
	if cfg.Compiler == nil {
		cfg.Compiler = OttoCompiler{}
	}
	return cfg, nil
}
