package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 充电器业务指标，同时实现 charger.Observer
type AppMetrics struct {
	CommandTotal   *prometheus.CounterVec   // labels: cmd, result=ok|timeout|error
	CommandLatency *prometheus.HistogramVec // labels: cmd
	FrameTotal     *prometheus.CounterVec   // labels: cmd, result
	PollTotal      *prometheus.CounterVec   // labels: result=ok|error
	PublishTotal   *prometheus.CounterVec   // labels: result=ok|error
	Connected      prometheus.Gauge
	InputVoltage   prometheus.Gauge

	ChannelVoltage     *prometheus.GaugeVec // labels: channel
	ChannelCurrent     *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelTemperature *prometheus.GaugeVec
	ChannelStatus      *prometheus.GaugeVec // 原始状态码
	ChannelWorking     *prometheus.GaugeVec
}

var _ charger.Observer = (*AppMetrics)(nil)

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	channelGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mc3000_channel_" + name,
			Help: help,
		}, []string{"channel"})
	}
	m := &AppMetrics{
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc3000_command_total",
			Help: "Commands sent to the charger by result.",
		}, []string{"cmd", "result"}),
		CommandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mc3000_command_duration_seconds",
			Help:    "Time from write to response or timeout.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"cmd"}),
		FrameTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc3000_frame_total",
			Help: "Notification frames received by result.",
		}, []string{"cmd", "result"}),
		PollTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc3000_poll_total",
			Help: "Refresh cycles by result.",
		}, []string{"result"}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc3000_publish_total",
			Help: "Snapshot publications by result.",
		}, []string{"result"}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mc3000_connected",
			Help: "1 when the charger link is up.",
		}),
		InputVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mc3000_input_voltage_volts",
			Help: "Charger supply voltage.",
		}),
		ChannelVoltage:     channelGauge("voltage_volts", "Battery voltage."),
		ChannelCurrent:     channelGauge("current_amperes", "Charge or discharge current."),
		ChannelCapacity:    channelGauge("capacity_mah", "Accumulated capacity."),
		ChannelTemperature: channelGauge("temperature_celsius", "Battery temperature."),
		ChannelStatus:      channelGauge("status", "Raw channel status code."),
		ChannelWorking:     channelGauge("working", "1 while charging, discharging or paused."),
	}
	reg.MustRegister(
		m.CommandTotal, m.CommandLatency, m.FrameTotal, m.PollTotal, m.PublishTotal,
		m.Connected, m.InputVoltage,
		m.ChannelVoltage, m.ChannelCurrent, m.ChannelCapacity, m.ChannelTemperature,
		m.ChannelStatus, m.ChannelWorking,
	)
	return m
}

func (m *AppMetrics) CommandDone(cmd, result string, d time.Duration) {
	m.CommandTotal.WithLabelValues(cmd, result).Inc()
	m.CommandLatency.WithLabelValues(cmd).Observe(d.Seconds())
}

func (m *AppMetrics) FrameReceived(cmd, result string) {
	m.FrameTotal.WithLabelValues(cmd, result).Inc()
}

// ObserveSnapshot 用最新快照刷新设备级与通道级 gauge；未读取到的通道不更新
func (m *AppMetrics) ObserveSnapshot(s charger.Snapshot) {
	if s.Connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
	if bd := s.State.BasicData; bd != nil {
		m.InputVoltage.Set(bd.InputVoltage)
	}
	for i := 0; i < mc3000.ChannelCount; i++ {
		c := s.State.Channels[i]
		if c == nil {
			continue
		}
		ch := strconv.Itoa(i)
		m.ChannelVoltage.WithLabelValues(ch).Set(c.Voltage)
		m.ChannelCurrent.WithLabelValues(ch).Set(c.Current)
		m.ChannelCapacity.WithLabelValues(ch).Set(float64(c.Capacity))
		m.ChannelTemperature.WithLabelValues(ch).Set(float64(c.Temperature))
		m.ChannelStatus.WithLabelValues(ch).Set(float64(c.Status))
		working := 0.0
		if c.IsWorking() {
			working = 1
		}
		m.ChannelWorking.WithLabelValues(ch).Set(working)
	}
}

// PollDone 记录一轮刷新结果
func (m *AppMetrics) PollDone(err error) {
	m.PollTotal.WithLabelValues(result(err)).Inc()
}

// PublishDone 记录一次快照发布结果
func (m *AppMetrics) PublishDone(err error) {
	m.PublishTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
