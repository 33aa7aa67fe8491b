package launch

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	base := t.TempDir()
	defaults := Defaults{WorkDir: filepath.Join(base, "cache")}

	tests := []struct {
		name string
		raw  string
		want *Request
	}{
		{
			name: "canonical keys",
			raw:  `{"type":"hsp3","request":"launch","program":"/src/main.hsp","installRoot":"/hsp3","workDir":"/work","trace":true,"encodingMode":"input"}`,
			want: &Request{Program: "/src/main.hsp", InstallRoot: "/hsp3", WorkDir: "/work", Trace: true, Encoding: build.EncodingInput},
		},
		{
			name: "legacy aliases",
			raw:  `{"program":"/src/main.hsp","hsp3Root":"/hsp3","distDir":"/dist","utf8Support":"disabled"}`,
			want: &Request{Program: "/src/main.hsp", InstallRoot: "/hsp3", WorkDir: "/dist", Encoding: build.EncodingDisabled},
		},
		{
			name: "canonical key wins over alias",
			raw:  `{"program":"/a.hsp","installRoot":"/new","root":"/old"}`,
			want: &Request{Program: "/a.hsp", InstallRoot: "/new", WorkDir: defaults.WorkDir, Encoding: build.EncodingAuto},
		},
		{
			name: "relative paths resolve against cwd",
			raw:  `{"program":"main.hsp","root":"tools/hsp3","cwd":"` + base + `"}`,
			want: &Request{
				Program:     filepath.Join(base, "main.hsp"),
				InstallRoot: filepath.Join(base, "tools", "hsp3"),
				WorkDir:     defaults.WorkDir,
				Encoding:    build.EncodingAuto,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(json.RawMessage(tt.raw), defaults)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"null", `null`},
		{"not an object", `[1]`},
		{"missing program", `{"installRoot":"/hsp3"}`},
		{"missing install root", `{"program":"/a.hsp"}`},
		{"empty program", `{"program":"","installRoot":"/hsp3"}`},
		{"wrong type", `{"program":"/a.hsp","installRoot":"/hsp3","trace":"yes"}`},
		{"unknown encoding", `{"program":"/a.hsp","installRoot":"/hsp3","encodingMode":"utf16"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(json.RawMessage(tt.raw), Defaults{WorkDir: "/cache"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeLaunchInvalid), "got %v: %v", errors.GetCode(err), err)
		})
	}
}

func TestResolveNeedsWorkDir(t *testing.T) {
	_, err := Arguments{Program: "/a.hsp", InstallRoot: "/hsp3"}.Resolve(Defaults{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLaunchInvalid))
}

func TestBuildRequest(t *testing.T) {
	r := Request{Program: "/a.hsp", InstallRoot: "/hsp3", WorkDir: "/w", Trace: true, Encoding: build.EncodingOutput}
	assert.Equal(t, build.Request{Program: "/a.hsp", InstallRoot: "/hsp3", WorkDir: "/w", Trace: true, Encoding: build.EncodingOutput}, r.BuildRequest())
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []interface{}{"program", "installRoot"}, doc["required"])
	assert.Contains(t, doc["properties"], "encodingMode")
}
