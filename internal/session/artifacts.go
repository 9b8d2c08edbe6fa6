package session

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/packing"
)

type resultArtifact struct {
	Backend       string  `yaml:"backend"`
	Status        string  `yaml:"status"`
	Objective     float64 `yaml:"objective"`
	Nodes         int     `yaml:"nodes"`
	ElapsedMs     int64   `yaml:"elapsed_ms"`
	StartAccepted bool    `yaml:"start_accepted"`
	Pairs         [][]int `yaml:"pairs,omitempty"`
}

// writeArtifacts stores <phase>.lp and <phase>-result.yaml under dir.
func writeArtifacts(dir string, phase Phase, backend string, m *packing.Model, res *mip.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	lp, err := os.Create(filepath.Join(dir, string(phase)+".lp"))
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := m.MIP.WriteLP(lp); err != nil {
		lp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := lp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}

	artifact := resultArtifact{
		Backend:       backend,
		Status:        res.Status.String(),
		Objective:     res.Objective,
		Nodes:         res.Nodes,
		ElapsedMs:     res.Elapsed.Milliseconds(),
		StartAccepted: res.StartAccepted,
	}
	if sol, err := m.Decode(res); err == nil {
		for _, p := range sol.Assign.Pairs() {
			artifact.Pairs = append(artifact.Pairs, []int{p.Item, p.Bin})
		}
	}

	data, err := yaml.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(phase)+"-result.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
