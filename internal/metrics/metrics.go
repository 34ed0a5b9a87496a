// Package metrics counts what a compile emitted and writes the counters in
// the Prometheus textfile format for node_exporter style collection.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "platewright"

// Recorder owns a private registry so repeated compiles in one process, and
// tests, never collide on the default registerer.
type Recorder struct {
	registry     *prometheus.Registry
	instructions *prometheus.CounterVec
	closures     *prometheus.CounterVec
	dispensed    prometheus.Counter
	compiles     *prometheus.CounterVec
}

// New builds a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Instructions appended to the document, by op.",
		}, []string{"op"}),
		closures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_closure_transitions_total",
			Help:      "Cover, seal, uncover and unseal instructions inserted automatically, by op.",
		}, []string{"op"}),
		dispensed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispense_locations_total",
			Help:      "Locations compiled into reagent dispenser instructions.",
		}),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Protocol compilations, by protocol and result.",
		}, []string{"protocol", "result"}),
	}
	r.registry.MustRegister(r.instructions, r.closures, r.dispensed, r.compiles)
	return r
}

// InstructionEmitted counts one appended instruction.
func (r *Recorder) InstructionEmitted(op string) {
	if r == nil {
		return
	}
	r.instructions.WithLabelValues(op).Inc()
}

// ClosureInserted counts one automatically inserted closure transition.
func (r *Recorder) ClosureInserted(op string) {
	if r == nil {
		return
	}
	r.closures.WithLabelValues(op).Inc()
}

// DispenseCompiled counts the locations of one dispense instruction.
func (r *Recorder) DispenseCompiled(locations int) {
	if r == nil || locations <= 0 {
		return
	}
	r.dispensed.Add(float64(locations))
}

// CompileFinished records the outcome of one protocol run.
func (r *Recorder) CompileFinished(protocol string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.compiles.WithLabelValues(protocol, result).Inc()
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes the current counters to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
