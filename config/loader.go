// =============================================================================
// 📦 cogniflow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("COGNIFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 cogniflow 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Persistence 认知状态快照持久化配置
	Persistence PersistenceConfig `yaml:"persistence" env:"PERSISTENCE"`

	// Thinking 顺序思考引擎配置
	Thinking ThinkingConfig `yaml:"thinking" env:"THINKING"`

	// Assessment 评估引擎配置
	Assessment AssessmentConfig `yaml:"assessment" env:"ASSESSMENT"`

	// Learning 学习引擎配置
	Learning LearningConfig `yaml:"learning" env:"LEARNING"`

	// Memory 工作记忆配置
	Memory MemoryConfig `yaml:"memory" env:"MEMORY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每秒请求数限制
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 突发请求数
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的跨域来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// TLS 证书与私钥，均为空时使用明文 HTTP
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// PersistenceConfig 快照持久化配置
type PersistenceConfig struct {
	// 存储类型: memory, file, redis, sql, mongodb
	Type string `yaml:"type" env:"TYPE"`
	// 自动保存间隔，0 表示关闭
	AutoSaveInterval time.Duration `yaml:"auto_save_interval" env:"AUTO_SAVE_INTERVAL"`
	// 文件存储
	File FileConfig `yaml:"file" env:"FILE"`
	// Redis 存储
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
	// SQL 存储
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`
	// MongoDB 存储
	MongoDB MongoDBConfig `yaml:"mongodb" env:"MONGODB"`
}

// FileConfig 文件快照配置
type FileConfig struct {
	// 快照文件路径
	Path string `yaml:"path" env:"PATH"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 是否使用 TLS 连接
	TLS bool `yaml:"tls" env:"TLS"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// MongoDBConfig MongoDB 配置
type MongoDBConfig struct {
	// 连接 URI
	URI string `yaml:"uri" env:"URI"`
	// 数据库名
	Database string `yaml:"database" env:"DATABASE"`
	// 集合名
	Collection string `yaml:"collection" env:"COLLECTION"`
	// 连接超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
}

// ThinkingConfig 顺序思考引擎配置
type ThinkingConfig struct {
	// 默认最大思考步数
	DefaultMaxThoughts int `yaml:"default_max_thoughts" env:"DEFAULT_MAX_THOUGHTS"`
	// 默认是否允许分支
	AllowBranching bool `yaml:"allow_branching" env:"ALLOW_BRANCHING"`
	// 默认是否要求假设
	RequireHypotheses bool `yaml:"require_hypotheses" env:"REQUIRE_HYPOTHESES"`
	// 保留的已完成会话数量
	HistoryLimit int `yaml:"history_limit" env:"HISTORY_LIMIT"`
}

// AssessmentConfig 评估引擎配置
type AssessmentConfig struct {
	// 优秀阈值
	Excellent float64 `yaml:"excellent" env:"EXCELLENT"`
	// 良好阈值
	Good float64 `yaml:"good" env:"GOOD"`
	// 合格阈值
	Acceptable float64 `yaml:"acceptable" env:"ACCEPTABLE"`
	// 质量指标默认时间窗口
	MetricsWindow time.Duration `yaml:"metrics_window" env:"METRICS_WINDOW"`
}

// LearningConfig 学习引擎调参项
type LearningConfig struct {
	// 反馈权重
	FeedbackWeight float64 `yaml:"feedback_weight" env:"FEEDBACK_WEIGHT"`
	// 模式阈值
	PatternThreshold float64 `yaml:"pattern_threshold" env:"PATTERN_THRESHOLD"`
	// 适应激进度
	AdaptationAggressiveness float64 `yaml:"adaptation_aggressiveness" env:"ADAPTATION_AGGRESSIVENESS"`
	// 示例影响力
	ExampleInfluence float64 `yaml:"example_influence" env:"EXAMPLE_INFLUENCE"`
	// 模式相似度阈值
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
}

// MemoryConfig 工作记忆配置
type MemoryConfig struct {
	// 工作记忆容量
	Capacity int `yaml:"capacity" env:"CAPACITY"`
	// 语义检索缓存条目上限，0 表示不限
	SemanticCacheSize int `yaml:"semantic_cache_size" env:"SEMANTIC_CACHE_SIZE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "COGNIFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := envTag
		if prefix != "" {
			envKey = prefix + "_" + envTag
		}

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration 走 ParseDuration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}

	switch c.Persistence.Type {
	case "memory", "file", "redis", "sql", "mongodb":
	default:
		errs = append(errs, fmt.Sprintf("unsupported persistence type %q", c.Persistence.Type))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, "server.tls_cert_file and server.tls_key_file must be set together")
	}
	if c.Persistence.Type == "file" && c.Persistence.File.Path == "" {
		errs = append(errs, "persistence.file.path is required for file store")
	}

	if c.Thinking.DefaultMaxThoughts <= 0 {
		errs = append(errs, "thinking.default_max_thoughts must be positive")
	}

	a := c.Assessment
	if !(a.Excellent >= a.Good && a.Good >= a.Acceptable && a.Acceptable >= 0 && a.Excellent <= 1) {
		errs = append(errs, "assessment thresholds must be descending within [0,1]")
	}

	for name, v := range map[string]float64{
		"feedback_weight":           c.Learning.FeedbackWeight,
		"pattern_threshold":         c.Learning.PatternThreshold,
		"adaptation_aggressiveness": c.Learning.AdaptationAggressiveness,
		"example_influence":         c.Learning.ExampleInfluence,
		"similarity_threshold":      c.Learning.SimilarityThreshold,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("learning.%s must be between 0 and 1", name))
		}
	}

	if c.Memory.Capacity <= 0 {
		errs = append(errs, "memory.capacity must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
