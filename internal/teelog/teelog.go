// Package teelog duplicates interactive session output to the console and an
// append-only dated log file.
package teelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Log is a dated, append-only session log. Writes go straight to the file
// descriptor with no userspace buffering, so an interrupt mid-session never
// truncates or loses completed lines.
type Log struct {
	file *os.File
	path string
}

// Open opens (creating if needed) the dated log file <prefix>-YYYYMMDD.log
// in dir, in append mode.
func Open(dir, prefix string, now time.Time) (*Log, error) {
	name := fmt.Sprintf("%s-%s.log", prefix, now.Format("20060102"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log %s: %w", path, err)
	}

	return &Log{file: f, path: path}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Tee returns a writer that duplicates writes to console and the log file.
func (l *Log) Tee(console io.Writer) io.Writer {
	return io.MultiWriter(console, l.file)
}

// Banner writes a session separator so consecutive sessions in the same
// day's file are distinguishable.
func (l *Log) Banner(target string, now time.Time) error {
	_, err := fmt.Fprintf(l.file, "=== %s session %s ===\n", now.Format(time.RFC3339), target)
	return err
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}
