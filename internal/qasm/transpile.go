package qasm

import "math"

// Backend describes the connectivity of a target device.
type Backend struct {
	Name      string
	NumQubits int
	// Coupling lists the undirected edges two-qubit gates may use. An empty
	// map means every pair is connected.
	Coupling    [][2]int
	NativeGates []string
}

// LinearBackend returns a chain-coupled device of n qubits.
func LinearBackend(name string, n int) Backend {
	b := Backend{Name: name, NumQubits: n, NativeGates: []string{"x", "h", "cx", "rz"}}
	for i := 0; i+1 < n; i++ {
		b.Coupling = append(b.Coupling, [2]int{i, i + 1})
	}
	return b
}

// DefaultBackend is the target used for local previews.
var DefaultBackend = LinearBackend("ibm_demo", 5)

func (b Backend) connected(a, c int) bool {
	if len(b.Coupling) == 0 {
		return true
	}
	for _, e := range b.Coupling {
		if (e[0] == a && e[1] == c) || (e[0] == c && e[1] == a) {
			return true
		}
	}
	return false
}

// Pass rewrites a circuit.
type Pass interface {
	Name() string
	Run(Circuit) Circuit
}

// Route inserts a swap before every two-qubit gate whose qubits are not
// coupled on the backend. The swap is a marker for the extra cost, not a
// full qubit remapping.
func Route(c Circuit, b Backend) Circuit {
	out := make([]Gate, 0, len(c.Gates))
	for _, g := range c.Gates {
		if len(g.Qubits) == 2 && !b.connected(g.Qubits[0], g.Qubits[1]) {
			out = append(out, Gate{Name: "swap", Qubits: []int{g.Qubits[0], g.Qubits[1]}})
		}
		out = append(out, g)
	}
	return c.withGates(out)
}

// selfInverse lists gates that cancel when applied twice to the same qubits.
var selfInverse = map[string]bool{
	"x": true, "y": true, "z": true, "h": true,
	"cx": true, "cz": true, "swap": true,
}

// GateCancellation drops adjacent pairs of identical self-inverse gates.
type GateCancellation struct{}

func (GateCancellation) Name() string { return "gate-cancellation" }

func (GateCancellation) Run(c Circuit) Circuit {
	out := make([]Gate, 0, len(c.Gates))
	for i := 0; i < len(c.Gates); i++ {
		g := c.Gates[i]
		if i+1 < len(c.Gates) && selfInverse[g.Name] && g.equalTarget(c.Gates[i+1]) {
			i++
			continue
		}
		out = append(out, g)
	}
	return c.withGates(out)
}

// RotationMerging folds runs of rz on the same qubit into one rotation and
// drops rotations that sum to zero.
type RotationMerging struct{}

func (RotationMerging) Name() string { return "rotation-merging" }

func (RotationMerging) Run(c Circuit) Circuit {
	out := make([]Gate, 0, len(c.Gates))
	for i := 0; i < len(c.Gates); {
		g := c.Gates[i]
		if !isRZ(g) {
			out = append(out, g)
			i++
			continue
		}
		q := g.Qubits[0]
		angle := g.Params[0]
		j := i + 1
		for ; j < len(c.Gates); j++ {
			next := c.Gates[j]
			if !isRZ(next) || next.Qubits[0] != q {
				break
			}
			angle += next.Params[0]
		}
		if math.Abs(angle) > 1e-10 {
			out = append(out, Gate{Name: "rz", Qubits: []int{q}, Params: []float64{angle}})
		}
		i = j
	}
	return c.withGates(out)
}

func isRZ(g Gate) bool {
	return g.Name == "rz" && len(g.Qubits) == 1 && len(g.Params) > 0
}

// DefaultPasses is the optimization pipeline applied after routing.
func DefaultPasses() []Pass {
	return []Pass{GateCancellation{}, RotationMerging{}}
}

// Stats summarizes the effect of transpilation.
type Stats struct {
	OriginalDepth  int     `json:"original_depth"`
	FinalDepth     int     `json:"final_depth"`
	OriginalGates  int     `json:"original_gates"`
	FinalGates     int     `json:"final_gates"`
	DepthReduction float64 `json:"depth_reduction"`
	GateReduction  float64 `json:"gate_reduction"`
}

// Result is a transpiled circuit and its statistics.
type Result struct {
	Circuit Circuit
	Stats   Stats
}

// Transpile routes c onto b and runs passes in order. Without passes it uses
// DefaultPasses.
func Transpile(c Circuit, b Backend, passes ...Pass) Result {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	stats := Stats{OriginalDepth: c.Depth(), OriginalGates: len(c.Gates)}
	out := Route(c, b)
	for _, p := range passes {
		out = p.Run(out)
	}
	stats.FinalDepth = out.Depth()
	stats.FinalGates = len(out.Gates)
	stats.DepthReduction = reduction(stats.OriginalDepth, stats.FinalDepth)
	stats.GateReduction = reduction(stats.OriginalGates, stats.FinalGates)
	return Result{Circuit: out, Stats: stats}
}

// reduction is the percentage drop from before to after, never negative.
func reduction(before, after int) float64 {
	if before == 0 || after >= before {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}
