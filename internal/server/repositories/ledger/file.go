package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

const maxLineBytes = 4 << 20

// FileLedger writes one JSON document per line to a file. A single mutex
// makes it the only writer within the process; every append is fsynced
// before it is acknowledged.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		return nil, errors.New("ledger file path is required")
	}
	return &FileLedger{path: path}, nil
}

func (l *FileLedger) Append(ctx context.Context, entry models.AttendanceLogEntry) error {
	if err := validate(entry); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal attendance entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir ledger dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync ledger file: %w", err)
	}
	return nil
}

// List scans the whole file. Lines that do not decode are skipped.
func (l *FileLedger) List(ctx context.Context, username string, limit int) ([]models.AttendanceLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.AttendanceLogEntry{}, nil
		}
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	entries := []models.AttendanceLogEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var e models.AttendanceLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if username == "" || e.Username == username {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	return tail(entries, limit), nil
}
