package recommender

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"swapp/api/internal/logging"
)

// CommandTrainer retrains by running a shell command, typically "pio build && pio train".
type CommandTrainer struct {
	Command string
	Dir     string
}

func (t *CommandTrainer) Train(ctx context.Context) error {
	if t.Command == "" {
		logging.Warn().Msg("recommender train command not configured, skipping retrain")
		return nil
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", t.Command)
	cmd.Dir = t.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		tail := out.Bytes()
		if len(tail) > 1024 {
			tail = tail[len(tail)-1024:]
		}
		return fmt.Errorf("train command failed: %w: %s", err, bytes.TrimSpace(tail))
	}

	logging.Info().Dur("elapsed", time.Since(start)).Msg("recommender retrained")
	return nil
}
