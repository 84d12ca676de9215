// Package metrics exports the shape of a finished tree as Prometheus gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/ingest"
	"github.com/agentic-research/lsgraph/internal/report"
)

const namespace = "lsgraph"

// NewRegistry returns a registry holding gauges for s. The tree is
// immutable, so the values are set once. r may be nil when no report
// could be computed; the report gauges are then left unregistered.
func NewRegistry(s *graph.Store, stats ingest.Stats, r *report.Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	nodes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "nodes",
		Help:      "Number of nodes in the tree by kind.",
	}, []string{"kind"})
	dirs := s.NumDirectories()
	nodes.WithLabelValues(graph.KindDirectory.String()).Set(float64(dirs))
	nodes.WithLabelValues(graph.KindFile.String()).Set(float64(s.Len() - dirs))

	rootSize := gauge("root_size_bytes", "Total size of all files in the tree.")
	rootSize.Set(float64(s.Size(s.Root())))

	lines := gauge("transcript_lines", "Non-blank transcript lines applied to the builder.")
	lines.Set(float64(stats.Events))

	shadowed := gauge("shadowed_dirs", "Directories created under a name that an earlier listing already used.")
	shadowed.Set(float64(stats.ShadowedDirs))

	reg.MustRegister(nodes, rootSize, lines, shadowed)

	if r != nil {
		small := gauge("small_dirs_total_bytes", "Sum of directory sizes at or below the policy cap.")
		small.Set(float64(r.SmallDirTotal))
		candidate := gauge("deletion_candidate_bytes", "Size of the smallest directory whose deletion frees enough space.")
		candidate.Set(float64(r.Candidate))
		reg.MustRegister(small, candidate)
	}
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}
