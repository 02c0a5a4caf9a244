package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ReporterConfig selects where report lines go. An empty LogFile writes to
// the console only; a nil Console writes to the file only.
type ReporterConfig struct {
	Console io.Writer
	LogFile string
	// Format is "text" (RunResult.Line) or "json" (one object per line)
	Format string
}

// Reporter writes each result as one line to the console and to an
// append-only log file. The file is synced after every line so a crash
// mid-sweep keeps every finished trial.
type Reporter struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	json    bool
}

func NewReporter(cfg ReporterConfig) (*Reporter, error) {
	r := &Reporter{
		console: cfg.Console,
		json:    cfg.Format == "json",
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open report log %s: %w", cfg.LogFile, err)
		}
		r.file = file
	}

	return r, nil
}

func (r *Reporter) format(result RunResult) ([]byte, error) {
	if r.json {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		return append(data, '\n'), nil
	}
	return []byte(result.Line() + "\n"), nil
}

// Report writes one result. It satisfies the orchestrator's Recorder.
func (r *Reporter) Report(result RunResult) error {
	line, err := r.format(result)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.console != nil {
		if _, err := r.console.Write(line); err != nil {
			return fmt.Errorf("failed to write report to console: %w", err)
		}
	}

	if r.file != nil {
		if _, err := r.file.Write(line); err != nil {
			return fmt.Errorf("failed to write report log: %w", err)
		}
		if err := r.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync report log: %w", err)
		}
	}

	return nil
}

func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
