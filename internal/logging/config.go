package logging

import (
	"kvbench/internal/config"
)

// DevelopmentLoggingConfig logs everything in human-readable form
func DevelopmentLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{
		Level:                "debug",
		Format:               "console",
		Output:               "stderr",
		EnableRequestTracing: true,
		EnableCorrelationIDs: true,
	}
}

// ProductionLoggingConfig keeps stdout free for the report lines
func ProductionLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{
		Level:                "info",
		Format:               "json",
		Output:               "stderr",
		EnableRequestTracing: true,
		EnableCorrelationIDs: true,
	}
}

// TestLoggingConfig returns logging configuration optimized for testing
func TestLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{
		Level:                "error",
		Format:               "json",
		Output:               "stderr",
		EnableRequestTracing: false,
		EnableCorrelationIDs: false,
	}
}

// SetupEnvironmentLogging configures logging based on environment
func SetupEnvironmentLogging(cfg *config.Config, environment string) {
	switch environment {
	case "development", "dev":
		cfg.Logging = DevelopmentLoggingConfig()
	case "production", "prod":
		cfg.Logging = ProductionLoggingConfig()
	case "test", "testing":
		cfg.Logging = TestLoggingConfig()
	}
}
