//go:build !statsview

package statsview

import "io"

// Launch only writes a "not compiled in" notice to output in builds without
// the statsview tag; no dashboard is started.
func Launch(output io.Writer) {
	_, _ = io.WriteString(output, "statsview not compiled in (build with -tags statsview)\n")
}

// Available reports whether a statsview build is available to launch.
func Available() bool { return false }
