package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

// TraceEntry is one JSON line of an exported trace.
type TraceEntry struct {
	// Iteration 0 is the best value before any search step.
	Iteration int     `json:"iteration"`
	Value     float64 `json:"value"`
	// ElapsedSeconds is set for time-bounded runs from iteration 1 on.
	ElapsedSeconds *float64 `json:"elapsed_seconds,omitempty"`
}

// TraceWriter writes trace entries as JSONL.
type TraceWriter struct {
	closer io.Closer
	writer *bufio.Writer
	path   string
}

// NewTraceWriter buffers entries written to w.
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{writer: bufio.NewWriterSize(w, 64*1024)}
}

// CreateTraceFile creates <dir>/<runID>.jsonl, replacing any previous file.
func CreateTraceFile(dir, runID string) (*TraceWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	path := filepath.Join(dir, runID+".jsonl")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	tw := NewTraceWriter(file)
	tw.closer = file
	tw.path = path
	return tw, nil
}

// Write appends one entry.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return tw.writer.WriteByte('\n')
}

// WriteTrace writes every snapshot of trace. Elapsed times follow the
// len(Elapsed) == len(Values)-1 convention.
func (tw *TraceWriter) WriteTrace(trace optimization.Trace) error {
	for i, v := range trace.Values {
		entry := TraceEntry{Iteration: i, Value: v}
		if i > 0 && i-1 < len(trace.Elapsed) {
			s := trace.Elapsed[i-1].Seconds()
			entry.ElapsedSeconds = &s
		}
		if err := tw.Write(entry); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered entries and closes the underlying file, if any.
func (tw *TraceWriter) Close() error {
	if err := tw.writer.Flush(); err != nil {
		if tw.closer != nil {
			_ = tw.closer.Close()
		}
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	if tw.closer != nil {
		return tw.closer.Close()
	}
	return nil
}

// Path returns the file path for writers made by CreateTraceFile.
func (tw *TraceWriter) Path() string { return tw.path }

// ReadTrace decodes JSONL entries from r.
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []TraceEntry
	for scanner.Scan() {
		var entry TraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trace line: %w", err)
	}
	return entries, nil
}
