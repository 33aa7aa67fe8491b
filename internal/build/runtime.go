package build

import "regexp"

// DefaultRuntime is used when the compiler output names no runtime.
const DefaultRuntime = "hsp3.exe"

// RuntimeResolver picks the runtime binary name from compiler output.
type RuntimeResolver interface {
	ResolveRuntime(output string) string
}

var runtimeMarker = regexp.MustCompile(`#Use runtime "([a-zA-Z_0-9.]+)"`)

// MarkerResolver finds the `#Use runtime "name"` line the helper prints.
type MarkerResolver struct {
	Default string
}

// ResolveRuntime returns the first marked runtime name, or the default.
func (r MarkerResolver) ResolveRuntime(output string) string {
	if m := runtimeMarker.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	if r.Default != "" {
		return r.Default
	}
	return DefaultRuntime
}
