package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/gridcast/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.TrainingYears, convey.ShouldResemble, []int{2023, 2024})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRIDCAST_DATA_DIR", "/tmp/f1")
			_ = os.Setenv("GRIDCAST_RETRY_ATTEMPTS", "5")
			_ = os.Setenv("GRIDCAST_RIDGE_LAMBDA", "0.25")
			_ = os.Setenv("GRIDCAST_TRAINING_YEARS", "2022, 2023,2024")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/f1")
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.RidgeLambda, convey.ShouldEqual, 0.25)
				convey.So(cfg.TrainingYears, convey.ShouldResemble, []int{2022, 2023, 2024})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
# file layer
data_dir: "/srv/f1"
model_kind: gradient
retry_backoff_ms: 250
training_years: [2021, 2022]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			_ = os.Setenv("GRIDCAST_MODEL_KIND", "ridge")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/f1")         // From file
				convey.So(cfg.RetryBackoffMS, convey.ShouldEqual, 250)        // From file
				convey.So(cfg.TrainingYears, convey.ShouldResemble, []int{2021, 2022})
				convey.So(cfg.ModelKind, convey.ShouldEqual, "ridge")         // Overridden by env
				convey.So(cfg.OpenF1BaseURL, convey.ShouldEqual, "https://api.openf1.org/v1") // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GRIDCAST_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty data dir", func() {
			_ = os.Setenv("GRIDCAST_DATA_DIR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "data_dir must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GRIDCAST_RETRY_ATTEMPTS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GRIDCAST_CONFIG",
		"GRIDCAST_DATA_DIR",
		"GRIDCAST_RETRY_ATTEMPTS",
		"GRIDCAST_RIDGE_LAMBDA",
		"GRIDCAST_TRAINING_YEARS",
		"GRIDCAST_MODEL_KIND",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gridcast-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
