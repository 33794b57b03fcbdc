//go:build statsview

// Package statsview optionally launches a live dashboard of Go runtime
// stats (goroutines, GC pauses, heap) for long-running Run calls. It is
// gated behind the statsview build tag so the core's "no graphics" scope
// never pulls go-echarts into a default build.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const Address = "localhost:6502"
const path = "/debug/statsview"

// Launch starts the stats dashboard in a background goroutine and writes
// its URL to output.
func Launch(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(Address))
		statsview.New().Start()
	}()
	fmt.Fprintf(output, "stats dashboard available at %s%s\n", Address, path)
}

// Available reports whether a statsview build is available to launch.
func Available() bool { return true }
