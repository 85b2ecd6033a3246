package qasm

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const bellish = `
OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
h q[0];
cx q[0], q[1];
cx q[1], q[2];
rz(1.5708) q[2];
rz(1.5708) q[2];
`

func TestParseBasicProgram(t *testing.T) {
	c, err := Parse(bellish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.NumQubits != 3 || c.NumClbits != 3 {
		t.Fatalf("unexpected registers: %d/%d", c.NumQubits, c.NumClbits)
	}
	want := []Gate{
		{Name: "h", Qubits: []int{0}},
		{Name: "cx", Qubits: []int{0, 1}},
		{Name: "cx", Qubits: []int{1, 2}},
		{Name: "rz", Qubits: []int{2}, Params: []float64{1.5708}},
		{Name: "rz", Qubits: []int{2}, Params: []float64{1.5708}},
	}
	if diff := cmp.Diff(want, c.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
	if c.Depth() != 5 {
		t.Fatalf("expected depth 5, got %d", c.Depth())
	}
	if c.TwoQubitCount() != 2 {
		t.Fatalf("expected 2 two-qubit gates, got %d", c.TwoQubitCount())
	}
}

func TestParseCommentsAndMultipleStatementsPerLine(t *testing.T) {
	c, err := Parse("qreg q[2]; // header\nh q[0]; x q[1]; // flip\n// cx q[0], q[1];\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Gates) != 2 || c.Gates[0].Name != "h" || c.Gates[1].Name != "x" {
		t.Fatalf("unexpected gates: %+v", c.Gates)
	}
}

func TestParseAngleExpressions(t *testing.T) {
	c, err := Parse("qreg q[1];\nrz(pi/2) q[0];\nrx(-pi/4) q[0];\nu3(0, 2*pi, 1e-3) q[0];")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Gates[0].Params[0]; math.Abs(got-math.Pi/2) > 1e-12 {
		t.Fatalf("expected pi/2, got %v", got)
	}
	if got := c.Gates[1].Params[0]; math.Abs(got+math.Pi/4) > 1e-12 {
		t.Fatalf("expected -pi/4, got %v", got)
	}
	if diff := cmp.Diff([]float64{0, 2 * math.Pi, 1e-3}, c.Gates[2].Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRegisterBroadcastAndMeasure(t *testing.T) {
	c, err := Parse("qreg a[1];\nqreg b[2];\ncreg c[3];\nh b;\nmeasure b[1] -> c[2];")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Gate{
		{Name: "h", Qubits: []int{1}},
		{Name: "h", Qubits: []int{2}},
		{Name: "measure", Qubits: []int{2}, Clbits: []int{2}},
	}
	if diff := cmp.Diff(want, c.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsGateDefinitions(t *testing.T) {
	src := "qreg q[2];\ngate bell a, b {\n  h a;\n  cx a, b;\n}\nbarrier q;\nbell q[0], q[1];"
	c, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Gate{{Name: "bell", Qubits: []int{0, 1}}}
	if diff := cmp.Diff(want, c.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{name: "range", src: "qreg q[2];\nh q[5];", want: ErrQubitRange},
		{name: "bare index too large", src: "h q[20000000];", want: ErrQubitRange},
		{name: "register too large", src: "qreg q[20000000];\nh q[0];", want: ErrQubitRange},
		{name: "registers sum too large", src: "qreg a[1000];\nqreg b[100];", want: ErrQubitRange},
		{name: "creg too large", src: "qreg q[1];\ncreg c[5000];", want: ErrQubitRange},
		{name: "unknown register", src: "qreg q[2];\nh r[0];", want: ErrSyntax},
		{name: "no operands", src: "qreg q[1];\nh;", want: ErrSyntax},
		{name: "bad angle", src: "qreg q[1];\nrz(tau) q[0];", want: ErrSyntax},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.src); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseWithoutRegistersUsesIndices(t *testing.T) {
	c, err := Parse("h q[0];\ncx q[0], q[3];")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.NumQubits != 0 || c.Width() != 4 {
		t.Fatalf("unexpected widths: declared %d drawn %d", c.NumQubits, c.Width())
	}
	if c.Depth() != 0 {
		t.Fatalf("undeclared circuit should have depth 0, got %d", c.Depth())
	}
}

func TestTranspileChainBackend(t *testing.T) {
	c, err := Parse(bellish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := Transpile(c, DefaultBackend)
	want := []Gate{
		{Name: "h", Qubits: []int{0}},
		{Name: "cx", Qubits: []int{0, 1}},
		{Name: "cx", Qubits: []int{1, 2}},
		{Name: "rz", Qubits: []int{2}, Params: []float64{3.1416}},
	}
	if diff := cmp.Diff(want, res.Circuit.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
	wantStats := Stats{OriginalDepth: 5, FinalDepth: 4, OriginalGates: 5, FinalGates: 4, DepthReduction: 20, GateReduction: 20}
	if diff := cmp.Diff(wantStats, res.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteInsertsSwapForUncoupledPair(t *testing.T) {
	c := Circuit{NumQubits: 3, Gates: []Gate{{Name: "cx", Qubits: []int{0, 2}}}}
	routed := Route(c, LinearBackend("line", 3))
	want := []Gate{{Name: "swap", Qubits: []int{0, 2}}, {Name: "cx", Qubits: []int{0, 2}}}
	if diff := cmp.Diff(want, routed.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
	if got := Route(c, Backend{Name: "full"}); len(got.Gates) != 1 {
		t.Fatalf("fully connected backend should not add swaps: %+v", got.Gates)
	}
}

func TestGateCancellationOnlyCancelsSelfInverse(t *testing.T) {
	c := Circuit{NumQubits: 2, Gates: []Gate{
		{Name: "x", Qubits: []int{0}},
		{Name: "x", Qubits: []int{0}},
		{Name: "t", Qubits: []int{1}},
		{Name: "t", Qubits: []int{1}},
		{Name: "cx", Qubits: []int{0, 1}},
		{Name: "cx", Qubits: []int{1, 0}},
	}}
	out := GateCancellation{}.Run(c)
	if len(out.Gates) != 4 {
		t.Fatalf("expected 4 gates, got %+v", out.Gates)
	}
}

func TestRotationMergingDropsZeroSum(t *testing.T) {
	c := Circuit{NumQubits: 1, Gates: []Gate{
		{Name: "rz", Qubits: []int{0}, Params: []float64{0.5}},
		{Name: "rz", Qubits: []int{0}, Params: []float64{-0.5}},
		{Name: "h", Qubits: []int{0}},
	}}
	out := RotationMerging{}.Run(c)
	want := []Gate{{Name: "h", Qubits: []int{0}}}
	if diff := cmp.Diff(want, out.Gates); diff != "" {
		t.Fatalf("gates mismatch (-want +got):\n%s", diff)
	}
}

func TestPreview(t *testing.T) {
	c, err := Parse("qreg q[2];\nh q[0];\ncx q[0], q[1];")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "q[0]: --H---*--\nq[1]: ------X--"
	if got := Preview(c); got != want {
		t.Fatalf("unexpected preview:\n%s\nwant:\n%s", got, want)
	}
}

func TestPreviewSpanningGateReservesMiddleWire(t *testing.T) {
	c := Circuit{NumQubits: 3, Gates: []Gate{
		{Name: "cx", Qubits: []int{0, 2}},
		{Name: "x", Qubits: []int{1}},
	}}
	want := "q[0]: --*------\nq[1]: --|---X--\nq[2]: --X------"
	if got := Preview(c); got != want {
		t.Fatalf("unexpected preview:\n%s\nwant:\n%s", got, want)
	}
}

func TestPreviewEmpty(t *testing.T) {
	if got := Preview(Circuit{}); got != "" {
		t.Fatalf("expected empty preview, got %q", got)
	}
}

func TestParseAcceptsMaxWidth(t *testing.T) {
	c, err := Parse(fmt.Sprintf("h q[%d];", MaxQubits-1))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Width() != MaxQubits {
		t.Fatalf("expected width %d, got %d", MaxQubits, c.Width())
	}
}
