// Package rlog wires the resolver client's internal components to zerolog.
//
// Components take a zerolog.Logger instead of reaching for the global
// logger, the way the slipstream client/server binaries configure
// zerolog.ConsoleWriter once in main() and hand a *log.Logger-shaped value
// down through the call chain.
package rlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Default returns the package-wide fallback logger: human-readable console
// output on stderr, no level filter of its own (debug lines included), unix
// timestamps. Callers that want JSON
// output or a different level should build their own zerolog.Logger and
// pass it to resolver.WithLogger instead of using Default.
func Default() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// Discard returns a logger that drops every event. Used when the resolver
// client is constructed without an explicit WithLogger call.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
