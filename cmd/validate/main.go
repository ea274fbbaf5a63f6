// Command validate re-scores a previously written scene directory. Exits
// nonzero when either metric exceeds its threshold, so it can gate a batch
// synthesis job in CI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
	"github.com/AutoSceneAI/autoscene-mvp/engine/spatial"
)

func main() {
	var (
		margin     = flag.Float64("margin", 5, "out-of-bounds tolerance in centimeters")
		maxOOB     = flag.Float64("max-oob", 1, "fail when the out-of-bounds ratio exceeds this")
		maxOverlap = flag.Float64("max-overlap", 1, "fail when the overlap ratio exceeds this")
		jsonOut    = flag.Bool("json", false, "print the report as JSON")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: validate [flags] <scene-dir>")
		os.Exit(2)
	}
	dir := flag.Arg(0)

	s, err := scene.Read(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}

	report, err := spatial.Validate(s, *margin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(report)
	} else {
		fmt.Printf("objects:       %d\n", report.Objects)
		fmt.Printf("out of bounds: %d (ratio %.3f, margin %.1fcm)\n", report.OutOfBounds, report.OOBRatio, *margin)
		fmt.Printf("overlap ratio: %.3f (intersection %.1f / total %.1f cm3)\n",
			report.OverlapRatio, report.IntersectionVolume, report.TotalVolume)
	}

	if report.OOBRatio > *maxOOB {
		fmt.Fprintf(os.Stderr, "validate: oob ratio %.3f exceeds %.3f\n", report.OOBRatio, *maxOOB)
		os.Exit(1)
	}
	if report.OverlapRatio > *maxOverlap {
		fmt.Fprintf(os.Stderr, "validate: overlap ratio %.3f exceeds %.3f\n", report.OverlapRatio, *maxOverlap)
		os.Exit(1)
	}
}
