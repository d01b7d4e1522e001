package main

import (
	"fmt"
	"io"
	"time"

	"undertow/internal/driver"
	"undertow/internal/observ"
)

func printStageTimings(out io.Writer, unit string, timings driver.Timings, passes *observ.Timer) {
	if out == nil {
		return
	}
	if d := timings.Duration(driver.StageRead); d > 0 {
		fmt.Fprintf(out, "%s: read %.1f ms\n", unit, toMillis(d))
	}
	if d := timings.Duration(driver.StageLower); d > 0 {
		fmt.Fprintf(out, "%s: lowered %.1f ms\n", unit, toMillis(d))
	}
	if d := timings.Duration(driver.StagePasses); d > 0 {
		fmt.Fprintf(out, "%s: transformed %.1f ms\n", unit, toMillis(d))
	}
	if total := timings.Total(); total > 0 {
		fmt.Fprintf(out, "%s: total %.1f ms\n", unit, toMillis(total))
	}
	if passes != nil && passes.Len() > 0 {
		fmt.Fprint(out, passes.Summary())
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
