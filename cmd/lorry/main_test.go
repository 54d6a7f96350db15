package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	watchDir   string
	outputDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		watchDir:   filepath.Join(base, "inbox"),
		outputDir:  filepath.Join(base, "out"),
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
watch_dir = %q
output_dir = %q
data_dir = %q
log_dir = %q

[mapping]
natural_key = "invoice_number"

[[mapping.columns]]
source = "Invoice No"
field = "invoice_number"
type = "string"
required = true

[[mapping.columns]]
source = "Consignor"
field = "consignor_name"
type = "string"
required = true

[[mapping.columns]]
source = "Weight"
field = "weight"
type = "float"

[lrid]
branch_code = "BLR"
`,
		env.watchDir,
		env.outputDir,
		filepath.Join(env.baseDir, "data"),
		filepath.Join(env.baseDir, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q missing %q", output, want)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Without --overwrite a second init must refuse.
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init over existing config to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "invoice_number")
	requireContains(t, out, "Consignor")
	requireContains(t, out, "BLR")
}

func TestProcessAndStatusCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	source := filepath.Join(env.baseDir, "drop.csv")
	csv := "Invoice No,Consignor,Weight\nINV-1,Acme,12.5\nINV-2,Zenith,3.0\n"
	if err := os.WriteFile(source, []byte(csv), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, _, err := runCLI(t, []string{"process", source}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "valid:  2")
	requireContains(t, out, "errors: 0")

	entries, err := os.ReadDir(env.outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	var pdfs int
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".pdf" {
			pdfs++
		}
	}
	if pdfs != 1 {
		t.Fatalf("output dir holds %d PDFs, want 1", pdfs)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Records")
	requireContains(t, out, "INV-1")
	requireContains(t, out, "INV-2")
}

func TestProcessRejectsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"process", filepath.Join(env.baseDir, "nope.csv")}, env.configPath); err == nil {
		t.Fatal("expected missing source to fail")
	}
}
