package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingFlags(t *testing.T) {
	tests := []struct {
		mode EncodingMode
		want []string
	}{
		{EncodingEnabled, nil},
		{EncodingInput, []string{"--no-utf8-output"}},
		{EncodingOutput, []string{"--no-utf8-input"}},
		{EncodingDisabled, []string{"--no-utf8-input", "--no-utf8-output"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.Flags())
		})
	}
}

func TestParseEncodingMode(t *testing.T) {
	tests := []struct {
		input   string
		want    EncodingMode
		wantErr bool
	}{
		{"", EncodingAuto, false},
		{"auto", EncodingAuto, false},
		{"Enabled", EncodingEnabled, false},
		{" input ", EncodingInput, false},
		{"output", EncodingOutput, false},
		{"disabled", EncodingDisabled, false},
		{"utf16", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEncodingMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEncoding(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	utf := write("utf.hsp", "#include \"hsp3utf.as\"\nmes \"こんにちは\"\n")
	x64 := write("x64.hsp", "#include \"hsp3_64.as\"\nmes 1\n")
	plain := write("plain.hsp", "mes \"hello\"\n")

	tests := []struct {
		name    string
		mode    EncodingMode
		program string
		want    EncodingMode
	}{
		{"auto detects hsp3utf", EncodingAuto, utf, EncodingEnabled},
		{"auto detects hsp3_64", EncodingAuto, x64, EncodingEnabled},
		{"auto without include", EncodingAuto, plain, EncodingDisabled},
		{"empty behaves as auto", "", utf, EncodingEnabled},
		{"explicit mode wins", EncodingOutput, utf, EncodingOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEncoding(tt.mode, tt.program)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveEncoding(EncodingAuto, filepath.Join(dir, "missing.hsp"))
	assert.Error(t, err)

	got, err := ResolveEncoding(EncodingInput, filepath.Join(dir, "missing.hsp"))
	require.NoError(t, err, "explicit modes never read the program")
	assert.Equal(t, EncodingInput, got)
}
