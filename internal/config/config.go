package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置；Filename 为空时只输出到 stderr
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// Transport 取值
const (
	TransportBLE = "ble"
	TransportSim = "sim"
)

// BLEConfig 蓝牙发现与 GATT 参数
type BLEConfig struct {
	Address            string        `mapstructure:"address"`
	Names              []string      `mapstructure:"names"`
	ServiceUUID        string        `mapstructure:"serviceUUID"`
	CharacteristicUUID string        `mapstructure:"characteristicUUID"`
	ScanTimeout        time.Duration `mapstructure:"scanTimeout"`
	MaxUnanswered      int           `mapstructure:"maxUnanswered"`
}

// SimConfig 模拟器参数；Profile 为空时使用内置设备数据
type SimConfig struct {
	Profile string `mapstructure:"profile"`
}

// DeviceConfig 充电器链路配置
type DeviceConfig struct {
	Transport       string        `mapstructure:"transport"`
	ResponseTimeout time.Duration `mapstructure:"responseTimeout"`
	BLE             BLEConfig     `mapstructure:"ble"`
	Sim             SimConfig     `mapstructure:"sim"`
}

// PollConfig 周期刷新配置
type PollConfig struct {
	Enable   bool          `mapstructure:"enable"`
	Interval time.Duration `mapstructure:"interval"`
}

// RateLimitConfig 控制接口限流
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// APIConfig 控制接口认证与限流
type APIConfig struct {
	AuthEnabled bool            `mapstructure:"authEnabled"`
	APIKeys     []string        `mapstructure:"apiKeys"`
	RateLimit   RateLimitConfig `mapstructure:"rateLimit"`
}

// RedisConfig 快照发布用 Redis 连接
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Channel      string        `mapstructure:"channel"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Device  DeviceConfig  `mapstructure:"device"`
	Poll    PollConfig    `mapstructure:"poll"`
	API     APIConfig     `mapstructure:"api"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 MC3000_CONFIG 读取；否则回退到 configs/mc3000d.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("MC3000_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("mc3000d")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	// 环境变量覆盖：前缀 MC3000_，点号替换为下划线
	v.SetEnvPrefix("MC3000")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	switch c.Device.Transport {
	case TransportBLE, TransportSim:
	default:
		return fmt.Errorf("config: device.transport must be %q or %q, got %q", TransportBLE, TransportSim, c.Device.Transport)
	}
	if c.Device.ResponseTimeout <= 0 {
		return fmt.Errorf("config: device.responseTimeout must be positive")
	}
	if c.Poll.Enable && c.Poll.Interval <= 0 {
		return fmt.Errorf("config: poll.interval must be positive")
	}
	if c.API.AuthEnabled && len(c.API.APIKeys) == 0 {
		return fmt.Errorf("config: api.apiKeys required when auth is enabled")
	}
	if c.API.RateLimit.Enabled && (c.API.RateLimit.RPS <= 0 || c.API.RateLimit.Burst <= 0) {
		return fmt.Errorf("config: api.rateLimit rps and burst must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mc3000d")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("device.transport", TransportBLE)
	v.SetDefault("device.responseTimeout", "2s")
	v.SetDefault("device.ble.names", []string{"Charger"})
	v.SetDefault("device.ble.serviceUUID", "0000ffe0-0000-1000-8000-00805f9b34fb")
	v.SetDefault("device.ble.characteristicUUID", "0000ffe1-0000-1000-8000-00805f9b34fb")
	v.SetDefault("device.ble.scanTimeout", "10s")
	v.SetDefault("device.ble.maxUnanswered", 3)
	v.SetDefault("device.sim.profile", "")

	v.SetDefault("poll.enable", true)
	v.SetDefault("poll.interval", "30s")

	v.SetDefault("api.authEnabled", false)
	v.SetDefault("api.rateLimit.enabled", true)
	v.SetDefault("api.rateLimit.rps", 2)
	v.SetDefault("api.rateLimit.burst", 4)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 1)
	v.SetDefault("redis.dialTimeout", "5s")
	v.SetDefault("redis.readTimeout", "3s")
	v.SetDefault("redis.writeTimeout", "3s")
	v.SetDefault("redis.channel", "mc3000:snapshot")
}
