package floureon

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	shadowFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_floureon_shadow_fetch_total",
			Help: "Shadow fetches by result (ok, invalid, error)",
		},
		[]string{"result"},
	)
	commandPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_floureon_command_publish_total",
			Help: "Desired-state commands by field and result (ok, rejected, error)",
		},
		[]string{"field", "result"},
	)
)

// MetricsCollector exports the thermostat's last observed state. It never
// touches the network; values come from the poller's last refresh.
type MetricsCollector struct {
	thermostat *Thermostat

	up                 prometheus.Gauge
	currentTemperature prometheus.Gauge
	targetTemperature  prometheus.Gauge
	power              prometheus.Gauge
	lastUpdate         prometheus.Gauge
}

func NewMetricsCollector(thermostat *Thermostat) *MetricsCollector {
	labels := prometheus.Labels{"device": thermostat.device.Name()}
	return &MetricsCollector{
		thermostat: thermostat,
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gohome_floureon_up",
			Help:        "1 once the thermostat has been refreshed at least once",
			ConstLabels: labels,
		}),
		currentTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gohome_floureon_current_temperature_celsius",
			Help:        "Measured room temperature",
			ConstLabels: labels,
		}),
		targetTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gohome_floureon_target_temperature_celsius",
			Help:        "Target temperature setpoint",
			ConstLabels: labels,
		}),
		power: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gohome_floureon_power_on",
			Help:        "Heating power (1=on, 0=off)",
			ConstLabels: labels,
		}),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gohome_floureon_last_update_timestamp_seconds",
			Help:        "Last successful refresh (epoch seconds)",
			ConstLabels: labels,
		}),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.up.Describe(ch)
	c.currentTemperature.Describe(ch)
	c.targetTemperature.Describe(ch)
	c.power.Describe(ch)
	c.lastUpdate.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	state := c.thermostat.State()
	if state.UpdatedAt.IsZero() {
		c.up.Set(0)
		c.up.Collect(ch)
		return
	}

	c.up.Set(1)
	setGauge(c.currentTemperature, state.CurrentTemperature)
	setGauge(c.targetTemperature, state.TargetTemperature)
	if state.IsOn {
		c.power.Set(1)
	} else {
		c.power.Set(0)
	}
	c.lastUpdate.Set(float64(state.UpdatedAt.Unix()))

	c.up.Collect(ch)
	c.currentTemperature.Collect(ch)
	c.targetTemperature.Collect(ch)
	c.power.Collect(ch)
	c.lastUpdate.Collect(ch)
}

func setGauge(g prometheus.Gauge, value *float64) {
	if value == nil {
		return
	}
	g.Set(*value)
}
