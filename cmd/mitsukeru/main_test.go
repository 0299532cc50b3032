package main

import (
	"reflect"
	"testing"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single word", []string{"galaxy"}, "galaxy"},
		{"multiple words", []string{"galaxy", "s24", "case"}, "galaxy s24 case"},
		{"quoted as one arg", []string{"galaxy s24"}, "galaxy s24"},
		{"empty", nil, ""},
		{"whitespace only", []string{" ", ""}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.want {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			"flags already first",
			[]string{"-limit", "5", "galaxy"},
			[]string{"-limit", "5", "galaxy"},
		},
		{
			"flags after query",
			[]string{"galaxy", "s24", "-limit", "5"},
			[]string{"-limit", "5", "galaxy", "s24"},
		},
		{
			"no flags",
			[]string{"galaxy", "s24"},
			[]string{"galaxy", "s24"},
		},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchArgsReorder(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("searchArgsReorder(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	// The default path does not exist in test environments, and there is no
	// config.yaml in the test working directory, so built-in defaults apply.
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty for defaults", resolved)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("Server.Port = %d, want default 8085", cfg.Server.Port)
	}
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	if _, _, err := loadConfig("/nonexistent/custom.yaml"); err == nil {
		t.Error("loadConfig() on explicit missing path: want error, got nil")
	}
}
