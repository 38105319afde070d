package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const scrapeTimeout = 2 * time.Second

// deviceCollector reads the persisted state on every scrape.
type deviceCollector struct {
	src StateSource

	up          *prometheus.Desc
	temperature *prometheus.Desc
	target      *prometheus.Desc
	relay       *prometheus.Desc
	output      *prometheus.Desc
	rampHours   *prometheus.Desc
	mode        *prometheus.Desc
	errorActive *prometheus.Desc
	configMode  *prometheus.Desc
}

func newDeviceCollector(src StateSource) *deviceCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &deviceCollector{
		src:         src,
		up:          desc("state_up", "Whether the device state could be read."),
		temperature: desc("temperature_celsius", "Probe temperature.", "probe"),
		target:      desc("target_temperature_celsius", "Configured target temperature."),
		relay:       desc("relay_on", "Relay state, 1 when energised.", "relay"),
		output:      desc("output_seconds", "Signed relay on-time over the last measurement window."),
		rampHours:   desc("ramp_hours", "Remaining ramp hours."),
		mode:        desc("mode", "Operating mode code (0 standby, 1 heat, 2 cool, 3 heat/cool)."),
		errorActive: desc("error_active", "Active safety or probe condition.", "code"),
		configMode:  desc("config_mode", "1 while the device runs in setup mode."),
	}
}

func (c *deviceCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.up, c.temperature, c.target, c.relay, c.output, c.rampHours, c.mode, c.errorActive, c.configMode} {
		ch <- d
	}
}

func (c *deviceCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	st, err := c.src.GetState(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	gauge(c.up, 1)
	gauge(c.temperature, st.FermenterTempC, "fermenter")
	gauge(c.temperature, st.FreezerTempC, "freezer")
	gauge(c.target, st.TargetTempC)
	gauge(c.relay, boolValue(st.HeatOn), "heat")
	gauge(c.relay, boolValue(st.CoolOn), "cool")
	gauge(c.output, float64(st.OutputSeconds))
	gauge(c.rampHours, float64(st.RampHours))
	gauge(c.mode, float64(st.Mode.Code()))
	gauge(c.configMode, boolValue(st.ConfigMode))
	for _, code := range st.ErrorCodes {
		gauge(c.errorActive, 1, code)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
