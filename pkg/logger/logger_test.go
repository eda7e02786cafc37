package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"viewledger/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			cfg:     &config.LoggingConfig{Level: "chatty"},
			wantErr: true,
		},
		{
			name:    "file output",
			cfg:     &config.LoggingConfig{Level: "info", File: "/tmp/viewledger-test.log"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && log == nil {
				t.Error("New() returned nil logger")
			}

			if tt.cfg.File != "" {
				os.Remove(tt.cfg.File)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestLevelMethods(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	cases := []struct {
		name string
		emit func(string)
	}{
		{"Debug", log.Debug},
		{"Info", log.Info},
		{"Warn", log.Warn},
		{"Error", log.Error},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.emit(tc.name + " message")
			if !strings.Contains(buf.String(), tc.name+" message") {
				t.Errorf("%s message not found in output", tc.name)
			}
		})
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithField("post_id", "7012345").Info("fetch completed")

	output := buf.String()
	if !strings.Contains(output, "fetch completed") {
		t.Error("message not found in output")
	}
	if !strings.Contains(output, `"post_id":"7012345"`) {
		t.Error("field not found in output")
	}
}

func TestWithFieldsMixedTypes(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithFields(map[string]interface{}{
		"dataset":    "posts",
		"view_count": int64(1523409),
		"succeeded":  true,
	}).Info("row written")

	output := buf.String()
	if !strings.Contains(output, `"dataset":"posts"`) {
		t.Error("string field not found in output")
	}
	if !strings.Contains(output, `"view_count":1523409`) {
		t.Error("int64 field not found in output")
	}
	if !strings.Contains(output, `"succeeded":true`) {
		t.Error("bool field not found in output")
	}
}

func TestWithErrorNilReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	if got := log.WithError(nil); got != Logger(log) {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.
		WithField("dataset", "posts").
		WithField("row", 7).
		Info("resume point recorded")

	output := buf.String()
	if !strings.Contains(output, `"dataset":"posts"`) {
		t.Error("first chained field not found in output")
	}
	if !strings.Contains(output, `"row":7`) {
		t.Error("second chained field not found in output")
	}
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WarnWithFields("rate limited, backing off", map[string]interface{}{
		"post_id":     "7099",
		"consecutive": 2,
	})

	output := buf.String()
	if !strings.Contains(output, "rate limited, backing off") {
		t.Error("message not found in output")
	}
	if !strings.Contains(output, `"consecutive":2`) {
		t.Error("consecutive field not found in output")
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}

	// Convenience functions just need to not panic.
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	WithField("dataset", "posts").Info("with field")
}
