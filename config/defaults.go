// =============================================================================
// 📦 cogniflow 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:      DefaultServerConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
		Persistence: DefaultPersistenceConfig(),
		Thinking:    DefaultThinkingConfig(),
		Assessment:  DefaultAssessmentConfig(),
		Learning:    DefaultLearningConfig(),
		Memory:      DefaultMemoryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "cogniflow",
		SampleRate:   0.1,
	}
}

// DefaultPersistenceConfig 返回默认持久化配置
func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		Type:             "file",
		AutoSaveInterval: 5 * time.Minute,
		File: FileConfig{
			Path: "./data/cognitive_state.json",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "cogniflow:",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			User:            "cogniflow",
			Name:            "./data/cogniflow.db",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		MongoDB: MongoDBConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "cogniflow",
			Collection:     "snapshots",
			ConnectTimeout: 10 * time.Second,
		},
	}
}

// DefaultThinkingConfig 返回默认思考引擎配置
func DefaultThinkingConfig() ThinkingConfig {
	return ThinkingConfig{
		DefaultMaxThoughts: 10,
		AllowBranching:     true,
		RequireHypotheses:  false,
		HistoryLimit:       100,
	}
}

// DefaultAssessmentConfig 返回默认评估配置
func DefaultAssessmentConfig() AssessmentConfig {
	return AssessmentConfig{
		Excellent:     0.8,
		Good:          0.6,
		Acceptable:    0.4,
		MetricsWindow: 24 * time.Hour,
	}
}

// DefaultLearningConfig 返回默认学习引擎配置
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		FeedbackWeight:           0.7,
		PatternThreshold:         0.6,
		AdaptationAggressiveness: 0.5,
		ExampleInfluence:         0.4,
		SimilarityThreshold:      0.65,
	}
}

// DefaultMemoryConfig 返回默认工作记忆配置
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:          1000,
		SemanticCacheSize: 0,
	}
}
