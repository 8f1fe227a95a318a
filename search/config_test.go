package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`name: custom
hints:
  - name: equals-call
    pattern: "$a.equals($b)"
    message: use ==
    severity: error
  - name: println
    pattern: fmt.Println($x)
  - name: disabled
    pattern: $x
    severity: off
`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", config.Name)
	require.Len(t, config.Hints, 3)
	assert.Equal(t, Hint{Name: "equals-call", Pattern: "$a.equals($b)", Message: "use ==", Severity: SeverityError}, config.Hints[0])
	assert.Equal(t, SeverityWarning, config.Hints[1].Severity)
	assert.Equal(t, SeverityOff, config.Hints[2].Severity)

	enabled := config.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "println", enabled[1].Name)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown severity", "hints:\n  - name: a\n    pattern: $x\n    severity: fatal\n"},
		{"unknown field", "hints:\n  - name: a\n    pattern: $x\n    rule: b\n"},
		{"missing pattern", "hints:\n  - name: a\n"},
		{"not yaml", "hints: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadConfig(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, WriteConfig(path, DefaultConfig()))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	assert.ErrorIs(t, WriteConfig(path, DefaultConfig()), os.ErrExist)
}

func TestDefaultConfigCompiles(t *testing.T) {
	t.Parallel()
	e, err := NewEngine(context.Background(), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, e.Hints(), len(DefaultConfig().Hints))
}

func TestSeverity(t *testing.T) {
	t.Parallel()
	for _, s := range []Severity{SeverityWarning, SeverityError, SeverityInfo, SeverityOff} {
		parsed, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	parsed, err := ParseSeverity(" ERROR ")
	require.NoError(t, err)
	assert.Equal(t, SeverityError, parsed)
	assert.Equal(t, "Severity(9)", Severity(9).String())
}
