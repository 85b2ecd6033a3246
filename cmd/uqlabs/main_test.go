package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, want := range []string{"serve", "run", "preview", "jobs", "backends", "chat", "settings", "config", "version"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q in %v", want, got)
		}
	}
}

// executeRoot runs the root command with args and returns stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeConfig writes a config pointing at baseURL with state under dir.
func writeConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "config_version: 1\n"+
		"state_dir: "+filepath.Join(dir, "state")+"\n"+
		"backend:\n  base_url: "+baseURL+"\n  timeout_seconds: 5\n")
	return path
}

func fakeExecutionService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/execution/run-code", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code     string `json:"code"`
			Language string `json:"language"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body.Code, "fail") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"boom"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"stdout": "ran " + body.Language, "exit_code": 0},
		})
	})
	mux.HandleFunc("/hardware/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"backends":[{"name":"ibm_kyiv","num_qubits":127,"operational":true,"pending_jobs":4}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.qasm"), "")
	writeFile(t, filepath.Join(dir, "nested", "deep", "a.qasm"), "")
	writeFile(t, filepath.Join(dir, "x.py"), "")

	got, err := expandPatterns([]string{
		filepath.Join(dir, "**", "*.qasm"),
		filepath.Join(dir, "b.qasm"),
		filepath.Join(dir, "x.py"),
	})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{
		filepath.Join(dir, "b.qasm"),
		filepath.Join(dir, "nested", "deep", "a.qasm"),
		filepath.Join(dir, "x.py"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if _, err := expandPatterns([]string{filepath.Join(dir, "*.cpp")}); err == nil {
		t.Fatalf("expected error for pattern without matches")
	}
	if _, err := expandPatterns([]string{" "}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseRunContext(t *testing.T) {
	if got, err := parseRunContext(""); err != nil || got != "notebook" {
		t.Fatalf("expected notebook default, got %q (%v)", got, err)
	}
	if got, err := parseRunContext("Simulation"); err != nil || got != "simulation" {
		t.Fatalf("expected simulation, got %q (%v)", got, err)
	}
	if _, err := parseRunContext("lab"); err == nil {
		t.Fatalf("expected error for unknown context")
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("sk-abcdef1234"); got != "****1234" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := maskKey("abc"); got != "****" {
		t.Fatalf("unexpected short mask %q", got)
	}
}

func TestConfigInitWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uqlabs.yaml")
	out, err := executeRoot(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("expected path in output, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "config_version: 1") {
		t.Fatalf("unexpected config:\n%s", data)
	}
	if _, err := executeRoot(t, "config", "init", "--path", path); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := executeRoot(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}

func TestPreviewCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.qasm")
	writeFile(t, path, "OPENQASM 2.0;\nqreg q[2];\nh q[0];\ncx q[0],q[1];")
	out, err := executeRoot(t, "preview", "--plain", path)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, want := range []string{"q[0]: --H---*--", "q[1]: ------X--", "ibm_demo"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunCommandRunsFilesAsCells(t *testing.T) {
	backend := fakeExecutionService(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, backend.URL)
	writeFile(t, filepath.Join(dir, "src", "01-notes.md"), "# Bell pair\n")
	writeFile(t, filepath.Join(dir, "src", "02-hello.py"), "print('hi')\n")

	out, err := executeRoot(t, "run", "--plain", "--config", cfg, filepath.Join(dir, "src", "*"))
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"Bell pair", "02-hello.py", "ran python", "ran 1, failed 0, skipped 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunCommandReportsFailures(t *testing.T) {
	backend := fakeExecutionService(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, backend.URL)
	writeFile(t, filepath.Join(dir, "bad.sh"), "fail now\n")
	writeFile(t, filepath.Join(dir, "good.sh"), "echo ok\n")

	out, err := executeRoot(t, "run", "--plain", "--config", cfg, filepath.Join(dir, "bad.sh"), filepath.Join(dir, "good.sh"))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 cell(s) failed") {
		t.Fatalf("expected failure summary error, got %v", err)
	}
	for _, want := range []string{"Error: boom", "ran bash"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBackendsCommand(t *testing.T) {
	backend := fakeExecutionService(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, backend.URL)
	out, err := executeRoot(t, "backends", "--plain", "--config", cfg)
	if err != nil {
		t.Fatalf("backends: %v", err)
	}
	if !strings.Contains(out, "ibm_kyiv") || !strings.Contains(out, "127") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSettingsCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://127.0.0.1:1")
	if _, err := executeRoot(t, "settings", "set-key", "--config", cfg, "OpenAI", "sk-test-9876"); err != nil {
		t.Fatalf("set-key: %v", err)
	}
	if _, err := executeRoot(t, "settings", "add-model", "--config", cfg, "--provider", "openai", "gpt-4.1"); err != nil {
		t.Fatalf("add-model: %v", err)
	}
	out, err := executeRoot(t, "settings", "show", "--config", cfg)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"openai: ****9876", "gpt-4.1 (gpt-4.1) via openai"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "sk-test-9876") {
		t.Fatalf("settings output leaked the key:\n%s", out)
	}
	if _, err := executeRoot(t, "settings", "remove-model", "--config", cfg, "gpt-4.1"); err != nil {
		t.Fatalf("remove-model: %v", err)
	}
	out, err = executeRoot(t, "settings", "show", "--config", cfg)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "gpt-4.1") {
		t.Fatalf("expected model removed:\n%s", out)
	}
}
