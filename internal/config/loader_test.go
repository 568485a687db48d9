package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/djjrip/gg-loop-platform-sub004/internal/config"
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
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.OracleTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.Policy.Version, convey.ShouldEqual, "v1")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GGLOOP_ADDR", ":8080")
			_ = os.Setenv("GGLOOP_ORACLE_TIMEOUT_MS", "2500")
			_ = os.Setenv("GGLOOP_WORKER_COUNT", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OracleTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9095"
dedupe_size: 250000
policy:
  version: "v2"
  inputs_per_minute: 45
  min_active_play_seconds: 600
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GGLOOP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9095")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 250000)
				convey.So(cfg.Policy.Version, convey.ShouldEqual, "v2")
				convey.So(cfg.Policy.InputsPerMinute, convey.ShouldEqual, 45)
				convey.So(cfg.Policy.MinActivePlaySeconds, convey.ShouldEqual, 600)
			})

			convey.Convey("Then fields absent from the file should keep defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OracleTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.Policy.ClicksPerMinute, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GGLOOP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("GGLOOP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GGLOOP_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	vars := []string{
		"GGLOOP_CONFIG",
		"GGLOOP_ADDR",
		"GGLOOP_ORACLE_TIMEOUT_MS",
		"GGLOOP_WORKER_COUNT",
		"GGLOOP_DEDUPE_SIZE",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "ggloop-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	_ = tmpFile.Close()
	return tmpFile.Name()
}
