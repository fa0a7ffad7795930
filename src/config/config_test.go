package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetDataDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/dna")

	if c.DatabaseDir != filepath.Join("/tmp/dna", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir, got %s", c.DatabaseDir)
	}

	c.DatabaseDir = "/var/db"
	c.SetDataDir("/tmp/other")

	if c.DatabaseDir != "/var/db" {
		t.Fatalf("explicit DatabaseDir should be kept, got %s", c.DatabaseDir)
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"bogus": logrus.DebugLevel,
	}
	for in, want := range cases {
		if got := LogLevel(in); got != want {
			t.Fatalf("LogLevel(%q) should be %v, not %v", in, want, got)
		}
	}
}

func TestTestConfig(t *testing.T) {
	c := NewTestConfig(t, logrus.InfoLevel)

	if c.Store || !c.NoService || !c.NoBridge {
		t.Fatalf("test config should be in-memory without listeners: %+v", c)
	}

	entry := c.Logger()
	if entry.Data["prefix"] != "dnaclient" {
		t.Fatalf("logger prefix should be dnaclient, got %v", entry.Data["prefix"])
	}
	if entry.Logger.Level != logrus.InfoLevel {
		t.Fatalf("logger level should be info, got %v", entry.Logger.Level)
	}
}
