/*
 * logging.go, part of qmbatch.
 *
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oklog/ulid/v2"
	slogmulti "github.com/samber/slog-multi"

	"github.com/rmera/qmbatch/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// logLevel returns the level named in the config, or debug if QMBATCH_DEBUG
// is set to anything.
func logLevel(c config.LogConfig) slog.Level {
	if os.Getenv("QMBATCH_DEBUG") != "" {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newLogger builds the logger for one run: text on stderr, plus JSON on file if
// it is not nil. Every record carries the run ID and the command.
func newLogger(stderr, file io.Writer, level slog.Level, runID, command string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...)).With(
		slog.String("run_id", runID),
		slog.String("command", command),
	)
}

// setupLogging installs the default logger. The returned closer closes the JSON
// run log, if any.
func setupLogging(c config.LogConfig, command string) (io.Closer, error) {
	var file *os.File
	var closer io.Closer = nopCloser{}
	if c.File != "" {
		var err error
		file, err = os.OpenFile(c.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening run log: %w", err)
		}
		closer = file
	}
	var w io.Writer
	if file != nil {
		w = file
	}
	slog.SetDefault(newLogger(os.Stderr, w, logLevel(c), ulid.Make().String(), command))
	return closer, nil
}
