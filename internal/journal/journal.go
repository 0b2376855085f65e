// Package journal appends ritual transitions to a plain text file.
//
// The journal is an audit trail only. Nothing reads it back into the ritual
// machine, so restarting the process still starts from an idle state.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/strad-mind/internal/ritual"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo Level = "INFO"
	LevelWarn Level = "WARN"
)

// Journal persists ritual progress to a text file.
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal that writes to the provided path.
func New(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: ensure dir: %w", err)
	}
	return &Journal{path: path}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Observe records a machine transition. Rejected flow checks and automatic
// closes are written as warnings.
func (j *Journal) Observe(tr ritual.Transition) {
	level := LevelInfo
	switch tr.Op {
	case "flow_check_rejected", ritual.TrailFrameCloseAuto:
		level = LevelWarn
	}
	msg := fmt.Sprintf("%s frame=%s %s->%s", tr.Op, orDash(tr.FrameID), orDash(string(tr.From)), orDash(string(tr.To)))
	if detail := strings.TrimSpace(tr.Detail); detail != "" {
		msg += fmt.Sprintf(" detail=%q", detail)
	}
	j.write(tr.At, level, msg)
}

func (j *Journal) write(at time.Time, level Level, message string) {
	if j == nil {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n",
		at.UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recent entries together with the
// total number of entries in the file.
func (j *Journal) Tail(maxLines int) ([]string, int) {
	if j == nil || maxLines <= 0 {
		return nil, 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}

// Info appends a service lifecycle entry stamped with the current time.
func (j *Journal) Info(format string, args ...any) {
	j.write(time.Now(), LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a service lifecycle warning stamped with the current time.
func (j *Journal) Warn(format string, args ...any) {
	j.write(time.Now(), LevelWarn, fmt.Sprintf(format, args...))
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
