// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log is a small leveled logger shared by the emulator packages.
// Messages are tagged with the category of the subsystem that wrote them.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
)

var levelNames = []string{"DEBUG", "INFO", "NOTICE", "WARN", "ERROR"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel returns the level with the given case-insensitive name.
func ParseLevel(s string) (Level, bool) {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// Category identifies the subsystem a message came from.
type Category string

const (
	PowerPC  Category = "POWERPC"
	HLE      Category = "HLE"
	Timing   Category = "TIMING"
	TableGen Category = "TABLEGEN"
	Host     Category = "HOST"
)

type Logger struct {
	mu         sync.Mutex
	level      Level
	output     io.Writer
	timestamps bool
}

var defaultLogger = &Logger{
	level:      LevelInfo,
	output:     os.Stderr,
	timestamps: true,
}

func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

func GetLevel() Level {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level
}

// SetOutput redirects log output. Timestamps are omitted when 'w' is not
// the process's standard error, which keeps captured output stable.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
	defaultLogger.timestamps = w == os.Stderr
}

// Enabled returns true if messages at 'level' are currently written.
func Enabled(level Level) bool {
	return level >= GetLevel()
}

func Debug(c Category, format string, args ...any) {
	defaultLogger.log(LevelDebug, c, format, args...)
}

func Info(c Category, format string, args ...any) {
	defaultLogger.log(LevelInfo, c, format, args...)
}

func Notice(c Category, format string, args ...any) {
	defaultLogger.log(LevelNotice, c, format, args...)
}

func Warn(c Category, format string, args ...any) {
	defaultLogger.log(LevelWarn, c, format, args...)
}

func Error(c Category, format string, args ...any) {
	defaultLogger.log(LevelError, c, format, args...)
}

func (l *Logger) log(lvl Level, c Category, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lvl < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.timestamps {
		timestamp := time.Now().Format("2006-01-02 15:04:05.000")
		fmt.Fprintf(l.output, "[%s] [%s] %s: %s\n", timestamp, levelNames[lvl], c, msg)
	} else {
		fmt.Fprintf(l.output, "[%s] %s: %s\n", levelNames[lvl], c, msg)
	}
}
