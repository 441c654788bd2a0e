package validity

// Error is the response-visible projection of a Result. Whatever internal
// fields a Result carries, only the message crosses this boundary.
type Error struct {
	Message string `json:"message"`
}

// MergeErrors projects the Context's aggregated violations into a response
// error list: existing entries first, then local results, then global results
// (a global run that never happened counts as empty). Nothing is deduplicated
// or reordered.
func MergeErrors(c *Context, existing []Error) []Error {
	merged := make([]Error, 0, len(existing))
	merged = append(merged, existing...)
	if c == nil {
		return merged
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.local {
		merged = append(merged, Error{Message: r.Message})
	}
	for _, r := range c.global {
		merged = append(merged, Error{Message: r.Message})
	}
	return merged
}
