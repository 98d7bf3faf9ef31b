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

// TCPConfig 适配器网关配置（适配器桥接程序通过 TCP 接入）
type TCPConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	MaxConnections int           `mapstructure:"maxConnections"`
	AcquireTimeout time.Duration `mapstructure:"acquireTimeout"`
	AcceptRate     int           `mapstructure:"acceptRate"`
	AcceptBurst    int           `mapstructure:"acceptBurst"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
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

// RedisConfig Redis 连接与未处理命令队列配置
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
	QueueKey     string        `mapstructure:"queueKey"`
	QueueMaxLen  int64         `mapstructure:"queueMaxLen"`
}

// DeviceConfig 本机逻辑设备
type DeviceConfig struct {
	LogicalAddress  uint8  `mapstructure:"logicalAddress"`
	PhysicalAddress string `mapstructure:"physicalAddress"`
	OSDName         string `mapstructure:"osdName"`
	VendorID        uint32 `mapstructure:"vendorId"`
	CECVersion      uint8  `mapstructure:"cecVersion"`
	PowerStatus     uint8  `mapstructure:"powerStatus"`
}

// CECConfig 总线设备配置
type CECConfig struct {
	Devices         []DeviceConfig `mapstructure:"devices"`
	InboxSize       int            `mapstructure:"inboxSize"`
	VendorTablePath string         `mapstructure:"vendorTablePath"`
	UnhandledBuffer int            `mapstructure:"unhandledBuffer"`
}

// OutboundConfig 发送队列配置
type OutboundConfig struct {
	RatePerSec int `mapstructure:"ratePerSec"`
	Burst      int `mapstructure:"burst"`
	QueueSize  int `mapstructure:"queueSize"`
}

// Config 顶层配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	TCP      TCPConfig      `mapstructure:"tcp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	CEC      CECConfig      `mapstructure:"cec"`
	Outbound OutboundConfig `mapstructure:"outbound"`
	API      APIConfig      `mapstructure:"api"`
}

// APIAuthConfig API Key 认证
type APIAuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"apiKeys"`
}

// APIConfig 查询接口配置
type APIConfig struct {
	Auth APIAuthConfig `mapstructure:"auth"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 CEC_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("CEC_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	// 环境变量覆盖：前缀 CEC_，并将点号替换为下划线
	v.SetEnvPrefix("CEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
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

// Validate 校验总线设备配置
func (c *Config) Validate() error {
	seen := make(map[uint8]bool, len(c.CEC.Devices))
	for i, d := range c.CEC.Devices {
		if d.LogicalAddress >= 15 {
			return fmt.Errorf("cec.devices[%d]: logical address %d out of range", i, d.LogicalAddress)
		}
		if seen[d.LogicalAddress] {
			return fmt.Errorf("cec.devices[%d]: duplicate logical address %d", i, d.LogicalAddress)
		}
		seen[d.LogicalAddress] = true
		if d.VendorID > 0xFFFFFF {
			return fmt.Errorf("cec.devices[%d]: vendor id %#x exceeds 24 bits", i, d.VendorID)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cec-server")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("tcp.addr", ":7100")
	v.SetDefault("tcp.readTimeout", "60s")
	v.SetDefault("tcp.writeTimeout", "5s")
	v.SetDefault("tcp.maxConnections", 4)
	v.SetDefault("tcp.acquireTimeout", "1s")
	v.SetDefault("tcp.acceptRate", 5)
	v.SetDefault("tcp.acceptBurst", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/cec-server.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "5s")
	v.SetDefault("redis.readTimeout", "3s")
	v.SetDefault("redis.writeTimeout", "3s")
	v.SetDefault("redis.queueKey", "cec:unhandled")
	v.SetDefault("redis.queueMaxLen", 10000)

	v.SetDefault("cec.devices", []map[string]interface{}{
		{
			"logicalAddress":  4,
			"physicalAddress": "1.0.0.0",
			"osdName":         "CEC Server",
			"vendorId":        0x001582,
			"cecVersion":      0x04,
			"powerStatus":     0,
		},
	})
	v.SetDefault("cec.inboxSize", 64)
	v.SetDefault("cec.vendorTablePath", "")
	v.SetDefault("cec.unhandledBuffer", 256)

	v.SetDefault("outbound.ratePerSec", 20)
	v.SetDefault("outbound.burst", 5)
	v.SetDefault("outbound.queueSize", 128)

	v.SetDefault("api.auth.enabled", false)
}
