// Package telemetry appends structured events to a local JSONL file.
//
// Events never carry conversation text, only counts and timings.
package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// EventsFile is the name of the JSONL file inside the telemetry directory.
const EventsFile = "events.jsonl"

// writeMu serialises appends so concurrent sessions never interleave lines.
var writeMu = make(chan struct{}, 1)

// Emit writes one JSON line to <dir>/events.jsonl when telemetry is enabled.
// Each line holds fields plus "time" (RFC3339Nano, UTC) and "event".
// fields is not modified.
func Emit(name string, fields map[string]any) {
	c := current()
	if !c.Enabled {
		return
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		errs.Error().Err(err).Str("dir", c.Dir).Msg("mkdir")
		return
	}
	path := filepath.Join(c.Dir, EventsFile)

	writeMu <- struct{}{}
	defer func() { <-writeMu }()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		errs.Error().Err(err).Str("path", path).Msg("open")
		return
	}
	defer f.Close()

	l := zerolog.New(f)
	l.Log().
		Str("time", time.Now().UTC().Format(time.RFC3339Nano)).
		Str("event", name).
		Fields(fields).
		Send()
}

// EmitCycle is Emit with the cycle id of ctx added as "cycle_id".
func EmitCycle(ctx context.Context, name string, fields map[string]any) {
	if !Enabled() {
		return
	}
	id, _ := CycleIDFromContext(ctx)
	m := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m["cycle_id"] = id
	Emit(name, m)
}
