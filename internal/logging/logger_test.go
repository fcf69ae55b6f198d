package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		" DEBUG ": DEBUG,
		"warning": WARN,
		"Error":   ERROR,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("pathing", &buf, WARN)

	l.Info("не попадёт")
	l.Warn("граница %d", 7)
	l.Error("ошибка")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[WARN] [pathing] граница 7", lines[0])
	assert.Equal(t, "[ERROR] [pathing] ошибка", lines[1])

	buf.Reset()
	l.SetLevels(TRACE, ERROR)
	l.Trace("всё видно")
	assert.Contains(t, buf.String(), "[TRACE] [pathing] всё видно")
	assert.NoError(t, l.Close())
}

func TestComponentLoggerWritesThroughDefault(t *testing.T) {
	var buf bytes.Buffer
	saved := defaultLogger
	defaultLogger = NewWriterLogger("pathd", &buf, INFO)
	t.Cleanup(func() { defaultLogger = saved })

	grid := Component("grid-test")
	assert.Same(t, grid, Component("grid-test"))
	assert.Contains(t, ComponentNames(), "grid-test")

	grid.Debug("скрыто")
	grid.Info("сетка %s построена", "walk")
	Info("сервис запущен")
	assert.Equal(t, "[INFO] [grid-test] сетка walk построена\n[INFO] [pathd] сервис запущен\n", buf.String())

	// Уровень компонента не меняет уровень остальных
	buf.Reset()
	ConfigureComponents(map[string]string{"grid-test": "debug"})
	grid.Debug("версия %d", 4)
	Debug("не попадёт")
	assert.Equal(t, "[DEBUG] [grid-test] версия 4\n", buf.String())

	// Логгер по умолчанию можно заменить после создания компонента
	var other bytes.Buffer
	defaultLogger = NewWriterLogger("pathd", &other, WARN)
	grid.Debug("в новый приёмник")
	assert.Contains(t, other.String(), "[DEBUG] [grid-test] в новый приёмник")
	assert.NoError(t, grid.Close())
}
