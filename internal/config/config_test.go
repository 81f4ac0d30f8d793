package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"archstone/internal/disasm"
	"archstone/internal/isa"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfig, EnvArch, EnvLower, EnvAliases, EnvNoColor} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	f := false

	tests := []struct {
		name    string
		body    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "file",
			body: `{"arch":"thumb","aliases":true,"demangle":false}`,
			want: Config{Arch: "thumb", Aliases: true, Demangle: &f},
		},
		{
			name: "env overrides file",
			body: `{"arch":"thumb","lowerCase":false}`,
			env:  map[string]string{EnvArch: "arm", EnvLower: "true", EnvNoColor: "1"},
			want: Config{Arch: "arm", LowerCase: true, NoColor: true},
		},
		{
			name:    "bad arch",
			body:    `{"arch":"mips"}`,
			wantErr: true,
		},
		{
			name:    "bad bool",
			body:    `{}`,
			env:     map[string]string{EnvAliases: "maybe"},
			wantErr: true,
		},
		{
			name:    "bad json",
			body:    `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load(write(t, tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without a file: %v", err)
	}
	if cfg.Mode() != disasm.ModeARM || !cfg.DemangleNames() || cfg.Style() != (isa.Style{}) {
		t.Errorf("defaults = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of an explicit missing file succeeded")
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfig, write(t, `{"arch":"t16","collapseRanges":true}`))

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode() != disasm.ModeThumb || !cfg.Style().CollapseRanges {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestSchema(t *testing.T) {
	bts, err := Schema()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(bts, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	defs, _ := doc["$defs"].(map[string]any)
	def, _ := defs["Config"].(map[string]any)
	props, _ := def["properties"].(map[string]any)
	for _, key := range []string{"arch", "lowerCase", "aliases", "collapseRanges", "noColor", "demangle"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema lacks property %q", key)
		}
	}
}
