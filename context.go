package validity

import (
	"context"
	"sync"
)

// Result is a reported business-rule violation. Only Message survives
// projection into a response; Detail and Err stay server-side.
type Result struct {
	Message string `json:"message"`
	Detail  string `json:"-"`
	Err     error  `json:"-"`
}

// DataErrors lets a resolver return a value together with violations it found
// while computing it. Interception routes Errors into the request's local
// results and uses Data as the field value.
type DataErrors struct {
	Data   any
	Errors []Result
}

// Context aggregates validation results and profiling records for one
// in-flight request. The integration adapter creates one per request and
// attaches it where resolvers can find it; wrapped resolvers append to it;
// the response merger drains it. It must never be reused across requests.
//
// Appends are mutex-guarded: fields of one response may resolve on
// concurrent goroutines, all sharing this Context. The order of entries
// across different fields follows completion order, not schema order.
type Context struct {
	mu      sync.Mutex
	local   []Result
	global  []Result // nil until the global run is claimed
	profile []ProfilingRecord
}

type contextKey struct{}

// NewContext returns a copy of parent carrying a fresh validation Context,
// and the Context itself.
func NewContext(parent context.Context) (context.Context, *Context) {
	vc := &Context{}
	return context.WithValue(parent, contextKey{}, vc), vc
}

// FromContext extracts the validation Context from ctx, or nil when the
// request was not set up for validation.
func FromContext(ctx context.Context) *Context {
	vc, _ := ctx.Value(contextKey{}).(*Context)
	return vc
}

// AppendLocal records field-scoped violations.
func (c *Context) AppendLocal(rs ...Result) {
	if len(rs) == 0 {
		return
	}
	c.mu.Lock()
	c.local = append(c.local, rs...)
	c.mu.Unlock()
}

// claimGlobal atomically marks the global validator run as started and
// reports whether the caller won the claim. The global slice is installed
// non-nil and empty before any global validator executes, so every later
// field resolution observes "already ran" even while the run is in flight.
func (c *Context) claimGlobal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.global != nil {
		return false
	}
	c.global = []Result{}
	return true
}

func (c *Context) appendGlobal(rs ...Result) {
	if len(rs) == 0 {
		return
	}
	c.mu.Lock()
	c.global = append(c.global, rs...)
	c.mu.Unlock()
}

// LocalResults returns a snapshot of the field-scoped violations recorded so
// far.
func (c *Context) LocalResults() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.local...)
}

// GlobalResults returns a snapshot of the global violations and whether the
// global run has been claimed at all.
func (c *Context) GlobalResults() ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.global == nil {
		return nil, false
	}
	return append([]Result(nil), c.global...), true
}

func (c *Context) appendProfile(rec ProfilingRecord) {
	c.mu.Lock()
	c.profile = append(c.profile, rec)
	c.mu.Unlock()
}

// ProfilingRecords returns a snapshot of the timing records collected so far.
func (c *Context) ProfilingRecords() []ProfilingRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ProfilingRecord(nil), c.profile...)
}

func (c *Context) drainProfile() []ProfilingRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs := c.profile
	c.profile = nil
	return recs
}
