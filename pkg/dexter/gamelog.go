package dexter

import "fmt"

// LogEntry is one human-readable line of the append-only game history.
type LogEntry struct {
	Seq     int    `json:"seq"`
	Story   int    `json:"story"`
	Kind    string `json:"kind"`
	Actor   string `json:"actor,omitempty"`
	Message string `json:"message"`
}

func (g *Game) logf(kind, actor, format string, args ...any) {
	g.Log = append(g.Log, LogEntry{
		Seq:     len(g.Log) + 1,
		Story:   g.CurrentStory,
		Kind:    kind,
		Actor:   actor,
		Message: fmt.Sprintf(format, args...),
	})
}

// LogSince returns entries with a sequence number greater than seq.
func (g *Game) LogSince(seq int) []LogEntry {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(g.Log) {
		return nil
	}
	return g.Log[seq:]
}
