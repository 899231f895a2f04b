package types

// ------------------------
// Console (retained state + events)
// ------------------------

// ConsoleStats is the retained stats document published by the console.
type ConsoleStats struct {
	Received  uint32 `json:"received"`  // bytes drained from the port
	Dropped   uint32 `json:"dropped"`   // newest bytes discarded on overflow
	Delivered uint32 `json:"delivered"` // bytes handed to consumers
	Buffered  int    `json:"buffered"`  // bytes currently queued
	TS        int64  `json:"ts_ms"`     // publish Unix ms
}

// ShellLine is the event payload for one received command line.
type ShellLine struct {
	Line string `json:"line"`
	TS   int64  `json:"ts_ms"`
}
