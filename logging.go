// logging.go: default structured Logger backed by zerolog.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"os"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the cerberus Logger
// contract. keyvals is treated as alternating key/value pairs, the
// same convention the facade uses when calling Logger methods.
type zerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger builds a Logger writing JSON lines to stdout with no
// level filtering, so debug messages are written too. Use
// NewZerologLoggerWith for custom output/level.
func NewZerologLogger() Logger {
	z := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return &zerologLogger{z: z}
}

// NewZerologLoggerWith wraps a caller-configured zerolog.Logger,
// letting the caller control output destination, level, and sampling.
func NewZerologLoggerWith(z zerolog.Logger) Logger {
	return &zerologLogger{z: z}
}

func withFields(e *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keyvals[i+1])
	}
	return e
}

func (l *zerologLogger) Debug(msg string, keyvals ...interface{}) {
	withFields(l.z.Debug(), keyvals).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keyvals ...interface{}) {
	withFields(l.z.Info(), keyvals).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, keyvals ...interface{}) {
	withFields(l.z.Warn(), keyvals).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keyvals ...interface{}) {
	withFields(l.z.Error(), keyvals).Msg(msg)
}
