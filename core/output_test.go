package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/schema"
)

func intPtr(v int) *int { return &v }

func TestFormatRunOutput(t *testing.T) {
	cases := []struct {
		name string
		in   backend.RunResult
		want string
	}{
		{"stdout", backend.RunResult{Stdout: "hello"}, "hello"},
		{"stderr", backend.RunResult{Stdout: "out", Stderr: "warn"}, "out\nstderr:\nwarn"},
		{"counts", backend.RunResult{Counts: json.RawMessage(`{"0":3}`)}, "counts:\n{\n  \"0\": 3\n}"},
		{"empty absent exit", backend.RunResult{}, "Execution complete (no output)."},
		{"empty zero exit", backend.RunResult{ExitCode: intPtr(0)}, "Execution complete (no output)."},
		{"whitespace nonzero exit", backend.RunResult{Stdout: "\n\t", ExitCode: intPtr(2)}, "Execution finished with exit code 2 (no text output)."},
		{"stderr only", backend.RunResult{Stderr: "boom", ExitCode: intPtr(1)}, "stderr:\nboom"},
	}
	for _, tc := range cases {
		if got := FormatRunOutput(tc.in); got != tc.want {
			t.Fatalf("case %q: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestFormatSimulationOutput(t *testing.T) {
	got := FormatSimulationOutput(backend.SimulationResult{
		Choice:        "safe-rl",
		Depth:         4,
		TwoQubitCount: 2,
		WallTimeS:     0.5,
		ExecTimeS:     0.125,
		Counts:        json.RawMessage(`{"00":512}`),
		BlochVectors:  [][3]float64{{0, 0, 1}},
		Noise:         json.RawMessage(`{"fidelity":0.98}`),
	})
	want := "choice: safe-rl\n" +
		"depth: 4\n" +
		"two_qubit_count: 2\n" +
		"wall_time_s: 0.5\n" +
		"exec_time_s: 0.125\n" +
		"counts:\n{\n  \"00\": 512\n}\n" +
		"bloch vectors:\n  q[0]: (0.000, 0.000, 1.000)\n" +
		"noise:\n{\n  \"fidelity\": 0.98\n}"
	if got != want {
		t.Fatalf("unexpected simulation output:\n%s\nwant:\n%s", got, want)
	}
}

func TestErrorOutputMessages(t *testing.T) {
	if got := errorOutput(backend.ErrTransport); got != "Error: Could not reach the execution service. Check your connection and try again." {
		t.Fatalf("unexpected transport message %q", got)
	}
	if got := errorOutput(&backend.HTTPError{Status: 502}); got != "Error: request failed with status 502" {
		t.Fatalf("unexpected http message %q", got)
	}
}

func TestPreviewCell(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	cell := addCell(t, svc, schema.CellKindCode, "OPENQASM 2.0;\nqreg q[2];\nh q[0];\ncx q[0],q[1];", schema.LanguageQASM)

	resp, err := svc.PreviewCell(ctx, schema.PreviewCellRequest{CellID: cell.ID})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if resp.Preview != "q[0]: --H---*--\nq[1]: ------X--" {
		t.Fatalf("unexpected preview:\n%s", resp.Preview)
	}
	if resp.Qubits != 2 || resp.Gates != 2 || resp.Depth != 2 || resp.TwoQubitGates != 1 {
		t.Fatalf("unexpected metrics %+v", resp)
	}
	if resp.Transpiled.Backend != "ibm_demo" || resp.Transpiled.FinalGates != 2 {
		t.Fatalf("unexpected transpile stats %+v", resp.Transpiled)
	}

	python := activeNotebook(t, svc).Cells[1]
	if _, err := svc.PreviewCell(ctx, schema.PreviewCellRequest{CellID: python.ID}); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for python cell, got %v", err)
	}
	if _, err := PreviewSource("qreg q[1];\nh q[5];"); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad qasm, got %v", err)
	}
}

func TestPreviewSourceRejectsHugeCircuits(t *testing.T) {
	for _, src := range []string{"h q[20000000];", "qreg q[20000000];\nh q[0];"} {
		resp, err := PreviewSource(src)
		if !errors.Is(err, schema.ErrInvalidRequest) {
			t.Fatalf("%q: expected ErrInvalidRequest, got %v", src, err)
		}
		if resp.Preview != "" || resp.Qubits != 0 {
			t.Fatalf("%q: expected empty response, got %+v", src, resp)
		}
	}
}
