package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Tests mutate XDG_CONFIG_HOME via t.Setenv and therefore cannot run in
// parallel.

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()

	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o750)
	if mkdirErr != nil {
		t.Fatalf("mkdir: %v", mkdirErr)
	}

	writeErr := os.WriteFile(path, []byte(content), 0o600)
	if writeErr != nil {
		t.Fatalf("write config: %v", writeErr)
	}
}

func Test_LoadConfig_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, loadErr := LoadConfig(t.TempDir(), "")
	if loadErr != nil {
		t.Fatalf("LoadConfig: %v", loadErr)
	}

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadConfig_Project_File_Overrides_Global(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	writeConfigFile(t, filepath.Join(xdg, "boardfile", "config.json"),
		`{"project_name": "global", "store_path": "global.db"}`)

	workDir := t.TempDir()
	writeConfigFile(t, filepath.Join(workDir, ConfigFileName),
		`{"project_name": "local"}`)

	cfg, loadErr := LoadConfig(workDir, "")
	if loadErr != nil {
		t.Fatalf("LoadConfig: %v", loadErr)
	}

	// Project file wins on project_name; global still supplies
	// store_path; defaults fill the rest.
	want := Config{WorkItemsDir: "work-items", ProjectName: "local", StorePath: "global.db"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadConfig_Accepts_Comments_And_Trailing_Commas(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	workDir := t.TempDir()
	writeConfigFile(t, filepath.Join(workDir, ConfigFileName), `{
		// items live elsewhere in this repo
		"work_items_dir": "tickets",
	}`)

	cfg, loadErr := LoadConfig(workDir, "")
	if loadErr != nil {
		t.Fatalf("LoadConfig: %v", loadErr)
	}

	if cfg.WorkItemsDir != "tickets" {
		t.Fatalf("work_items_dir = %q, want tickets", cfg.WorkItemsDir)
	}
}

func Test_LoadConfig_Fails_When_Explicit_Path_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, loadErr := LoadConfig(t.TempDir(), "nope.json")

	if !errors.Is(loadErr, errConfigFileNotFound) {
		t.Fatalf("err = %v, want errConfigFileNotFound", loadErr)
	}
}

func Test_LoadConfig_Fails_When_Config_Is_Invalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	workDir := t.TempDir()
	writeConfigFile(t, filepath.Join(workDir, ConfigFileName), `{"work_items_dir": `)

	_, loadErr := LoadConfig(workDir, "")

	if !errors.Is(loadErr, errConfigInvalid) {
		t.Fatalf("err = %v, want errConfigInvalid", loadErr)
	}
}

func Test_LoadConfig_Rejects_Empty_Work_Items_Dir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	workDir := t.TempDir()
	writeConfigFile(t, filepath.Join(workDir, ConfigFileName), `{"work_items_dir": " "}`)

	cfg, loadErr := LoadConfig(workDir, "")

	// Whitespace is not trimmed; only the empty string is rejected.
	if loadErr != nil || cfg.WorkItemsDir != " " {
		t.Fatalf("cfg = %+v, err = %v", cfg, loadErr)
	}
}
