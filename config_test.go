package jsfunc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
maxBoundArgs: 16
funcFileNameProperty: true
heapLimit: 1024
debug: true
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.MaxBoundArgs != 16 || !cfg.FuncFileNameProperty || cfg.HeapLimit != 1024 || !cfg.Debug {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, isOtto := cfg.Compiler.(OttoCompiler); !isOtto {
		t.Errorf("default compiler must be OttoCompiler")
	}
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		maxArgs int
		wantErr bool
	}{
		{"empty", "", DefaultMaxBoundArgs, false},
		{"zero means default", "maxBoundArgs: 0", DefaultMaxBoundArgs, false},
		{"above default clamps", "maxBoundArgs: 0x40000000", DefaultMaxBoundArgs, false},
		{"negative", "maxBoundArgs: -1", 0, true},
		{"negative heap", "heapLimit: -5", 0, true},
		{"not yaml", "maxBoundArgs: [", 0, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(test.raw))
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if cfg.MaxBoundArgs != test.maxArgs {
				t.Errorf("expected maxBoundArgs %d, got %d", test.maxArgs, cfg.MaxBoundArgs)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("maxBoundArgs: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	vm := newTestVM(t, cfg)
	if vm.Config().MaxBoundArgs != 3 {
		t.Errorf("VM must use the loaded limit, got %d", vm.Config().MaxBoundArgs)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestNewVMRejectsInvalidConfig(t *testing.T) {
	if _, err := NewVM(Config{MaxBoundArgs: -1}); err == nil {
		t.Errorf("expected an error")
	}
}

func TestVMIDs(t *testing.T) {
	a := newTestVM(t, Config{})
	b := newTestVM(t, Config{})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("VM ids must be unique, got %q and %q", a.ID(), b.ID())
	}
}
