package push

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileSender appends every message as a JSON line to a file.
type FileSender struct {
	filePath string
	mu       sync.Mutex
}

// NewFileSender creates the parent directory of filePath if needed.
func NewFileSender(filePath string) (*FileSender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("push log file path cannot be empty")
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for push log file '%s': %w", dir, err)
	}
	return &FileSender{filePath: filePath}, nil
}

type fileEntry struct {
	LoggedAt string          `json:"logged_at"`
	Token    string          `json:"token"`
	Payload  json.RawMessage `json:"payload"`
}

func (s *FileSender) Send(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	line, err := json.Marshal(fileEntry{
		LoggedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Token:    msg.Token,
		Payload:  payload,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open push log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write push log file: %w", err)
	}
	return nil
}
