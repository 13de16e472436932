package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges are updated with atomics only, so the audio goroutine
// may touch them.
var (
	planUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchbay_engine_plan_updates_total",
		Help: "Number of execution plans published to the audio goroutine",
	})
	planNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "patchbay_engine_plan_nodes",
		Help: "Number of nodes in the current execution plan",
	})
	blocksRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchbay_engine_blocks_rendered_total",
		Help: "Number of audio blocks rendered",
	})
	midiDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchbay_engine_midi_dropped_total",
		Help: "Number of MIDI messages dropped because the queue was full",
	})
)
