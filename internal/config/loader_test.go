package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rankpoints/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should equal the compiled-in defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKPOINTS_LOG_LEVEL", "debug")
			_ = os.Setenv("RANKPOINTS_WORKER_COUNT", "16")
			_ = os.Setenv("RANKPOINTS_TVA__RATING__MAX_VALUE", "30")
			_ = os.Setenv("RANKPOINTS_RATING__PROVISIONAL_THRESHOLD", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys are resolved through the double underscore", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.TVA.Rating.MaxValue, convey.ShouldEqual, 30)
				convey.So(cfg.Rating.ProvisionalThreshold, convey.ShouldEqual, 3)
				convey.So(cfg.TVA.Ranking.MaxValue, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
worker_count: 8
base_value:
  max_value: 40
decay:
  breakpoints:
    - years: 1
      multiplier: 1
    - years: 4
      multiplier: 0.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKPOINTS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge the file onto the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.BaseValue.MaxValue, convey.ShouldEqual, 40)
				convey.So(cfg.BaseValue.PointsPerPlayer, convey.ShouldEqual, 0.5)
				convey.So(cfg.Decay.Breakpoints, convey.ShouldResemble, []config.Breakpoint{
					{Years: 1, Multiplier: 1},
					{Years: 4, Multiplier: 0.5},
				})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
worker_count: 8
tgp:
  max_value: 1.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKPOINTS_CONFIG", tmpFile)
			_ = os.Setenv("RANKPOINTS_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.TGP.MaxValue, convey.ShouldEqual, 1.5)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKPOINTS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RANKPOINTS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKPOINTS_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading values that fail validation", func() {
			_ = os.Setenv("RANKPOINTS_DISTRIBUTION__LINEAR_FRACTION", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "linear_fraction")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RANKPOINTS_CONFIG",
		"RANKPOINTS_LOG_LEVEL",
		"RANKPOINTS_WORKER_COUNT",
		"RANKPOINTS_TVA__RATING__MAX_VALUE",
		"RANKPOINTS_RATING__PROVISIONAL_THRESHOLD",
		"RANKPOINTS_DISTRIBUTION__LINEAR_FRACTION",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rankpoints-config-*.yaml")
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
