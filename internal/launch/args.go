// Package launch decodes and validates the arguments of a DAP launch request.
package launch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/build"
	"github.com/grovetools/hspdebug/util/pathutil"
	"github.com/mitchellh/mapstructure"
)

// Arguments mirrors the launch configuration an editor sends. Unknown keys
// such as "type", "name" or "request" are ignored.
type Arguments struct {
	Program      string `json:"program" mapstructure:"program" jsonschema:"minLength=1,description=HSP script to debug"`
	InstallRoot  string `json:"installRoot" mapstructure:"installRoot" jsonschema:"minLength=1,description=HSP3 install directory containing hspcmp.exe"`
	WorkDir      string `json:"workDir,omitempty" mapstructure:"workDir" jsonschema:"description=Directory for the compile helper (defaults to the cache directory)"`
	Cwd          string `json:"cwd,omitempty" mapstructure:"cwd" jsonschema:"description=Base directory for relative program and installRoot paths"`
	Trace        bool   `json:"trace,omitempty" mapstructure:"trace" jsonschema:"description=Verbose session logging and a fresh compile helper"`
	EncodingMode string `json:"encodingMode,omitempty" mapstructure:"encodingMode" jsonschema:"enum=auto,enum=enabled,enum=input,enum=output,enum=disabled,description=UTF-8 handling of source and output"`
}

// aliases maps older launch.json keys to their current names.
var aliases = map[string]string{
	"hsp3Root":    "installRoot",
	"root":        "installRoot",
	"outDir":      "workDir",
	"distDir":     "workDir",
	"utf8Support": "encodingMode",
}

// Defaults supplies values for omitted arguments.
type Defaults struct {
	WorkDir string
}

// Request is a validated launch: every path is absolute and the encoding
// mode is known. It does not change once accepted.
type Request struct {
	Program     string
	InstallRoot string
	WorkDir     string
	Trace       bool
	Encoding    build.EncodingMode
}

// BuildRequest converts r for the build pipeline.
func (r Request) BuildRequest() build.Request {
	return build.Request{
		Program:     r.Program,
		InstallRoot: r.InstallRoot,
		WorkDir:     r.WorkDir,
		Trace:       r.Trace,
		Encoding:    r.Encoding,
	}
}

// Parse validates raw launch arguments and resolves them into a Request.
// Every failure carries LAUNCH_INVALID.
func Parse(raw json.RawMessage, defaults Defaults) (*Request, error) {
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return nil, errors.LaunchInvalid("launch arguments are missing")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.LaunchInvalid(fmt.Sprintf("launch arguments are not a JSON object: %v", err))
	}
	normalize(doc)

	validator, err := schemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "launch schema unavailable")
	}
	if err := validator.Validate(doc); err != nil {
		return nil, errors.LaunchInvalid(err.Error())
	}

	var args Arguments
	if err := mapstructure.Decode(doc, &args); err != nil {
		return nil, errors.LaunchInvalid(err.Error())
	}
	return args.Resolve(defaults)
}

// Resolve applies defaults and semantic checks.
func (a Arguments) Resolve(defaults Defaults) (*Request, error) {
	if a.Program == "" {
		return nil, errors.LaunchInvalid("program is required")
	}
	if a.InstallRoot == "" {
		return nil, errors.LaunchInvalid("installRoot is required")
	}

	mode, err := build.ParseEncodingMode(a.EncodingMode)
	if err != nil {
		return nil, errors.LaunchInvalid(err.Error())
	}

	workDir := a.WorkDir
	if workDir == "" {
		workDir = defaults.WorkDir
	}
	if workDir == "" {
		return nil, errors.LaunchInvalid("workDir is required when no default is configured")
	}

	return &Request{
		Program:     pathutil.Resolve(a.Cwd, a.Program),
		InstallRoot: pathutil.Resolve(a.Cwd, a.InstallRoot),
		WorkDir:     pathutil.Resolve(a.Cwd, workDir),
		Trace:       a.Trace,
		Encoding:    mode,
	}, nil
}

// normalize rewrites alias keys in place. A canonical key wins over its alias.
func normalize(doc map[string]interface{}) {
	for alias, canonical := range aliases {
		value, ok := doc[alias]
		if !ok {
			continue
		}
		delete(doc, alias)
		if _, exists := doc[canonical]; !exists {
			doc[canonical] = value
		}
	}
}
