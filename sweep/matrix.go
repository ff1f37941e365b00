package sweep

import (
	"fmt"

	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/workload"
)

// DefaultThetas is the skew sweep used for the contention study.
var DefaultThetas = []float64{0, 0.3, 0.5, 0.7, 0.9, 0.99}

// DefaultWorkloads are swept against DefaultThetas.
var DefaultWorkloads = []workload.Name{workload.YCSBA, workload.YCSBB}

// Topology is the cluster shape shared by every trial of a product sweep.
type Topology struct {
	Servers      int
	Clients      int
	DurationSecs int
}

// Product returns one config per workload x theta, workloads outermost.
// A workload that ignores theta gets a single config without one.
func Product(workloads []workload.Name, thetas []float64, topo Topology) []runner.RunConfig {
	configs := make([]runner.RunConfig, 0, len(workloads)*len(thetas))
	for _, w := range workloads {
		base := runner.RunConfig{
			Label:        string(w),
			Servers:      topo.Servers,
			Clients:      topo.Clients,
			DurationSecs: topo.DurationSecs,
			Workload:     w,
		}
		if !w.UsesTheta() {
			configs = append(configs, base)
			continue
		}
		for _, theta := range thetas {
			configs = append(configs, base.WithTheta(theta))
		}
	}
	return configs
}

// BankMatrix is the fixed set of bank transfer trials.
func BankMatrix(durationSecs int) []runner.RunConfig {
	named := []struct {
		name             string
		servers, clients int
	}{
		{"Basic_Distributed", 2, 2},
		{"High_Contention", 1, 3},
		{"Balanced_Distributed", 3, 1},
	}
	configs := make([]runner.RunConfig, 0, len(named))
	for _, n := range named {
		configs = append(configs, runner.RunConfig{
			Label:        n.name,
			Servers:      n.servers,
			Clients:      n.clients,
			DurationSecs: durationSecs,
			Workload:     workload.Transfer,
		})
	}
	return configs
}

// Describe is the one-line form of a config used in progress output.
func Describe(c runner.RunConfig) string {
	if c.Theta != nil {
		return fmt.Sprintf("%s theta=%g (%d servers, %d clients, %ds)", c.Label, *c.Theta, c.Servers, c.Clients, c.DurationSecs)
	}
	return fmt.Sprintf("%s (%d servers, %d clients, %ds)", c.Label, c.Servers, c.Clients, c.DurationSecs)
}
