// Package paths derives the preloader daemon's socket and PID-file locations.
package paths

const (
	// DefaultBase is used when no override is supplied.
	DefaultBase = "./tmp/spring"

	socketName  = "spring"
	pidfileName = "spring.pid"
)

// Layout is the set of daemon runtime files under one base directory.
type Layout struct {
	Base    string
	Socket  string
	PIDFile string
}

// Resolve composes the layout for base. An empty base selects DefaultBase.
// The base is joined verbatim with a single "/" and never cleaned, so
// whatever the daemon was started with is reproduced byte for byte.
func Resolve(base string) Layout {
	if base == "" {
		base = DefaultBase
	}
	return Layout{
		Base:    base,
		Socket:  base + "/" + socketName,
		PIDFile: base + "/" + pidfileName,
	}
}
