package metrics

import (
	"net/http"
	"time"

	"github.com/muurk/ithorft/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ithorft"

// Collector exposes gateway traffic counters and the last unit status.
// A nil *Collector is valid and records nothing.
type Collector struct {
	framesReceived  *prometheus.CounterVec
	framesSent      *prometheus.CounterVec
	pairingOutcomes *prometheus.CounterVec

	lastStatus       prometheus.Gauge
	temperature      *prometheus.GaugeVec
	fanSpeed         *prometheus.GaugeVec
	speedMode        *prometheus.GaugeVec
	filterDirty      prometheus.Gauge
	faultActive      prometheus.Gauge
	remainingMinutes prometheus.Gauge
}

// NewCollector creates the collector. Register it with a prometheus.Registerer.
func NewCollector() *Collector {
	return &Collector{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Gateway lines received, by outcome",
		}, []string{"result"}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames transmitted, by parameter code",
		}, []string{"code"}),
		pairingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_transitions_total",
			Help:      "Pairing state machine transitions, by resulting state",
		}, []string{"state"}),
		lastStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_status_timestamp_seconds",
			Help:      "Time the last status report was decoded (epoch seconds)",
		}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Temperatures reported by the unit",
		}, []string{"sensor"}),
		fanSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_speed_percent",
			Help:      "Fan speeds reported by the unit",
		}, []string{"fan"}),
		speedMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_mode",
			Help:      "Active speed mode (1 for the current mode)",
		}, []string{"mode"}),
		filterDirty: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filter_dirty",
			Help:      "1 if the unit reports the filter needs replacing",
		}),
		faultActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fault_active",
			Help:      "1 if the unit reports an active fault",
		}),
		remainingMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_remaining_minutes",
			Help:      "Minutes left on a timer override",
		}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.framesReceived.Describe(ch)
	c.framesSent.Describe(ch)
	c.pairingOutcomes.Describe(ch)
	c.lastStatus.Describe(ch)
	c.temperature.Describe(ch)
	c.fanSpeed.Describe(ch)
	c.speedMode.Describe(ch)
	c.filterDirty.Describe(ch)
	c.faultActive.Describe(ch)
	c.remainingMinutes.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.framesReceived.Collect(ch)
	c.framesSent.Collect(ch)
	c.pairingOutcomes.Collect(ch)
	c.lastStatus.Collect(ch)
	c.temperature.Collect(ch)
	c.fanSpeed.Collect(ch)
	c.speedMode.Collect(ch)
	c.filterDirty.Collect(ch)
	c.faultActive.Collect(ch)
	c.remainingMinutes.Collect(ch)
}

// FrameReceived counts one inbound line by its outcome
func (c *Collector) FrameReceived(result string) {
	if c == nil {
		return
	}
	c.framesReceived.WithLabelValues(result).Inc()
}

// FrameSent counts one transmitted frame
func (c *Collector) FrameSent(code protocol.Code) {
	if c == nil {
		return
	}
	c.framesSent.WithLabelValues(code.String()).Inc()
}

// PairingTransition counts a pairing state change
func (c *Collector) PairingTransition(state string) {
	if c == nil {
		return
	}
	c.pairingOutcomes.WithLabelValues(state).Inc()
}

// ObserveStatus updates the status gauges from a decoded record
func (c *Collector) ObserveStatus(rec *protocol.StatusRecord, at time.Time) {
	if c == nil || rec == nil {
		return
	}

	c.lastStatus.Set(float64(at.Unix()))
	setTemp := func(sensor string, v *protocol.Tenths) {
		if v == nil {
			c.temperature.DeleteLabelValues(sensor)
			return
		}
		c.temperature.WithLabelValues(sensor).Set(v.Celsius())
	}
	setTemp("exhaust", rec.ExhaustTemperature)
	setTemp("supply", rec.SupplyTemperature)
	setTemp("indoor", rec.IndoorTemperature)
	setTemp("outdoor", rec.OutdoorTemperature)

	setFan := func(fan string, v *float64) {
		if v == nil {
			c.fanSpeed.DeleteLabelValues(fan)
			return
		}
		c.fanSpeed.WithLabelValues(fan).Set(*v)
	}
	setFan("exhaust", rec.ExhaustFanSpeed)
	setFan("inlet", rec.InletFanSpeed)

	c.speedMode.Reset()
	c.speedMode.WithLabelValues(rec.SpeedMode.String()).Set(1)
	c.filterDirty.Set(boolToFloat(rec.FilterDirty))
	c.faultActive.Set(boolToFloat(rec.FaultActive))
	c.remainingMinutes.Set(float64(rec.RemainingTime))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NewRegistry returns a registry holding c plus the Go runtime collectors
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// Handler exposes the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
