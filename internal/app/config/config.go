package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"

	"ppm-client/internal/pkg/utils"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found, reading configuration from environment")
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:      utils.GetEnvString("APP_ENV", "development"),
			Version:  utils.GetEnvString("APP_VERSION", "unknown"),
			Timezone: utils.GetEnvString("APP_TIMEZONE", "America/New_York"),
		},
		FHIR: FHIR{
			BaseUrl:    utils.GetEnvString("FHIR_BASE_URL", "http://localhost:8080/baseDstu3"),
			AuthToken:  utils.GetEnvString("FHIR_AUTH_TOKEN", ""),
			AuthPrefix: utils.GetEnvString("FHIR_AUTH_PREFIX", "Token"),
		},
		JWT: JWT{
			Secret: utils.GetEnvString("JWT_SECRET", ""),
			Prefix: utils.GetEnvString("JWT_PREFIX", "JWT"),
		},
		Study: Study{
			TestEmailPatterns: splitPatterns(utils.GetEnvString("STUDY_TEST_EMAIL_PATTERNS", "")),
		},
	}
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "info"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILE_NAME", ""),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILE_NAME", ""),
		},
	}
}

func splitPatterns(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	patterns := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
