package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
environment: test
server:
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 15s
log:
  level: debug
  format: console
  output: stdout
kafka:
  brokers: ["localhost:9092"]
  reports_topic: stalk.reports
  predictions_topic: stalk.predictions
clickhouse:
  host: localhost
  port: 9000
  database: stalkpull
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment != "test" {
		t.Fatalf("unexpected environment %q", c.Environment)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("unexpected port %d", c.Server.Port)
	}
	if c.Kafka.ReportsTopic != "stalk.reports" {
		t.Fatalf("unexpected topic %q", c.Kafka.ReportsTopic)
	}
}

func TestLoadRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("STALKPULL_CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("STALKPULL_CLICKHOUSE_PORT", "9440")
	t.Setenv("STALKPULL_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STALKPULL_REDIS_ADDR", "redis.internal:6379")

	c, err := LoadWithEnv(writeSample(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ClickHouse.Host != "ch.internal" {
		t.Fatalf("unexpected host %q", c.ClickHouse.Host)
	}
	if c.ClickHouse.Port != 9440 {
		t.Fatalf("unexpected port %d", c.ClickHouse.Port)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
	if !c.Cache.Redis.Enabled || c.Cache.Redis.Addr != "redis.internal:6379" {
		t.Fatalf("redis override not applied: %+v", c.Cache.Redis)
	}
}

func TestLoadWithEnvBadIntKeepsYAMLValue(t *testing.T) {
	t.Setenv("STALKPULL_CLICKHOUSE_PORT", "not-a-port")

	c, err := LoadWithEnv(writeSample(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ClickHouse.Port != 9000 {
		t.Fatalf("unexpected port %d", c.ClickHouse.Port)
	}
}
