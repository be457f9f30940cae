// internal/journal/journal.go
//
// Sync journal for the client. The engine routes every reconciliation
// outcome here (loads, rollbacks, dropped stale responses), and the TUI
// tails the parsed records back into its journal panel so the user can
// see what happened to their tasks after the fact.

package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level classifies an entry: Info for normal sync traffic, Warn for
// rejected or stale intents, Error for failed mutations and rollbacks.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one parsed journal record.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// fieldSep separates the timestamp, level, and message on a line. The
// message is the last field, so it may itself contain the separator.
const fieldSep = "|"

// Journal appends records to a text file, one per line, in the form
// "RFC3339|LEVEL|message". Readers get parsed entries, not raw lines.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a journal that writes to the provided path.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Journal{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// record appends one entry. Whitespace runs in the message, including
// newlines, are collapsed so a record never spans lines.
func (j *Journal) record(level Level, message string) {
	if j == nil {
		return
	}
	message = strings.Join(strings.Fields(message), " ")
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	fmt.Fprintf(file, "%s%s%s%s%s\n", j.now().Format(time.RFC3339), fieldSep, level, fieldSep, message)
}

// Tail returns up to max of the most recent entries, oldest first. Lines
// that fail to parse are skipped: the panel shows what it can rather than
// failing on a corrupt or hand-edited file.
func (j *Journal) Tail(max int) []Entry {
	if j == nil || max <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	return entries
}

func parseLine(line string) (Entry, bool) {
	parts := strings.SplitN(line, fieldSep, 3)
	if len(parts) != 3 {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return Entry{}, false
	}
	level := Level(parts[1])
	switch level {
	case LevelInfo, LevelWarn, LevelError:
	default:
		return Entry{}, false
	}
	return Entry{Time: ts, Level: level, Message: parts[2]}, true
}

// Info appends an informational entry.
func (j *Journal) Info(format string, args ...any) {
	j.record(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (j *Journal) Warn(format string, args ...any) {
	j.record(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (j *Journal) Error(format string, args ...any) {
	j.record(LevelError, fmt.Sprintf(format, args...))
}
