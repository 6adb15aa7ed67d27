package submit

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// Log writes payloads to a zerolog logger.
type Log struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLog returns a submitter that logs each payload at info level.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger, level: zerolog.InfoLevel}
}

// AtLevel returns a copy logging at level.
func (l *Log) AtLevel(level zerolog.Level) *Log {
	out := *l
	out.level = level
	return &out
}

// Submit implements Submitter.
func (l *Log) Submit(_ context.Context, payload schema.Values) error {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	l.logger.WithLevel(l.level).
		Strs("fields", keys).
		Interface("payload", map[string]any(payload)).
		Msg("form payload submitted")
	return nil
}
