package kvcore

import (
	"fmt"
	"log"
	"sync"
)

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the capability kvcore's collaborators log through. The
// dispatch core never constructs a concrete logger itself — it is handed
// one via Config — matching the stance that logging is an external concern
// referenced only by interface.
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// MetricsCollector is the capability kvcore's dispatcher reports
// per-command counters and latencies through (spec.md §4.2 step 15, §5
// "Per-command latency histograms and request counters").
type MetricsCollector interface {
	// RecordCommand records a completed dispatch: the uppercased command
	// name and how long the handler took to run, in microseconds.
	RecordCommand(cmd string, micros int64)

	// RecordError records a dispatch that ended in an error reply.
	RecordError(cmd string)

	// RecordReconnection records a new client connection.
	RecordReconnection()
}

// CommandStats is the default MetricsCollector: a per-command latency
// histogram and request counter, updated on every dispatch.
type CommandStats struct {
	mu       sync.RWMutex
	requests map[string]int64
	errors   map[string]int64
	microSum map[string]int64
}

// NewCommandStats creates an empty CommandStats collector.
func NewCommandStats() *CommandStats {
	return &CommandStats{
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
		microSum: make(map[string]int64),
	}
}

func (s *CommandStats) RecordCommand(cmd string, micros int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[cmd]++
	s.microSum[cmd] += micros
}

func (s *CommandStats) RecordError(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[cmd]++
}

func (s *CommandStats) RecordReconnection() {}

// RequestCount returns the number of times cmd has been dispatched (thread-safe).
func (s *CommandStats) RequestCount(cmd string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests[cmd]
}

// AverageMicros returns the mean handler latency recorded for cmd (thread-safe).
func (s *CommandStats) AverageMicros(cmd string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.requests[cmd]
	if n == 0 {
		return 0
	}
	return float64(s.microSum[cmd]) / float64(n)
}

// defaultLogger is a simple logger implementation using the standard log package
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, fields ...Field) {
	l.logWithFields("DEBUG", msg, fields...)
}

func (l *defaultLogger) Info(msg string, fields ...Field) {
	l.logWithFields("INFO", msg, fields...)
}

func (l *defaultLogger) Error(msg string, fields ...Field) {
	l.logWithFields("ERROR", msg, fields...)
}

func (l *defaultLogger) logWithFields(level, msg string, fields ...Field) {
	logMsg := level + ": " + msg
	for _, field := range fields {
		logMsg += " " + field.Key + "=" + formatValue(field.Value)
	}
	log.Println(logMsg)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}
