package validity

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hanpama/validity/schema"
)

// ProfilingRecord captures the timing of a single field resolution.
// ValidationDuration covers validator selection and execution,
// ExecutionDuration covers the whole wrapped call, and TotalExecution is the
// remainder attributable to the original resolver.
type ProfilingRecord struct {
	Path               schema.Path
	FieldName          string
	ValidationDuration time.Duration
	ExecutionDuration  time.Duration
	TotalExecution     time.Duration
}

// ProfilingHandler consumes a request's timing records after the response is
// merged.
type ProfilingHandler func([]ProfilingRecord)

// DefaultProfilingHandler pretty-prints the records to stderr, one line per
// field resolution with millisecond durations.
func DefaultProfilingHandler(recs []ProfilingRecord) {
	if len(recs) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFIELD\tVALIDATION\tRESOLVER\tTOTAL")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%.2fms\t%.2fms\t%.2fms\n",
			r.Path, r.FieldName,
			durationMs(r.ValidationDuration),
			durationMs(r.TotalExecution),
			durationMs(r.ExecutionDuration))
	}
	tw.Flush()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FlushProfile drains the Context's profiling records and hands them to the
// configured sink. It is a no-op when profiling is disabled or nothing was
// recorded.
func (w *Wrapper) FlushProfile(c *Context) {
	if c == nil {
		return
	}
	recs := c.drainProfile()
	if len(recs) == 0 {
		return
	}
	w.opt.ProfilingResultHandler(recs)
}
