// =============================================================================
// 📦 challenger 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Agent:     DefaultAgentConfig(),
		Browser:   DefaultBrowserConfig(),
		Gemini:    DefaultGeminiConfig(),
		Cache:     DefaultCacheConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultAgentConfig 返回默认求解策略
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ImageClassifierModel:      "gemini-2.5-flash",
		SpatialPointReasonerModel: "gemini-2.5-flash",
		SpatialPathReasonerModel:  "gemini-2.5-pro",
		MaxRounds:                 8,
		RoundTimeout:              60 * time.Second,
		ChallengeTimeout:          30 * time.Second,
		PollInterval:              250 * time.Millisecond,
		VerifyTimeout:             5 * time.Second,
		ReasoningRetries:          2,
		ReasoningBackoff:          3 * time.Second,
		BackendTimeout:            30 * time.Second,
		ReasoningRPS:              0,
		EnableGridDivisions:       true,
		TokenTTL:                  120 * time.Second,
		Motion:                    DefaultMotionConfig(),
	}
}

// DefaultMotionConfig 返回默认运动节奏
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		StepDelayMin:      8 * time.Millisecond,
		StepDelayMax:      22 * time.Millisecond,
		PressHold:         90 * time.Millisecond,
		ActionPause:       350 * time.Millisecond,
		PixelsPerWaypoint: 12,
		Jitter:            1.5,
	}
}

// DefaultBrowserConfig 返回默认浏览器配置
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       false,
		Timeout:        2 * time.Minute,
		ViewportWidth:  1280,
		ViewportHeight: 900,
		Locale:         "en-US",
	}
}

// DefaultGeminiConfig 返回默认 Gemini 配置
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Timeout:     60 * time.Second,
		Temperature: 0,
	}
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		DB:           0,
		KeyPrefix:    "challenger",
		AnswerTTL:    24 * time.Hour,
		ResponseTTL:  120 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    true,
		Namespace:  "challenger",
		ListenAddr: ":9091",
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
		ServiceName:  "challenger",
		SampleRate:   0.1,
	}
}
