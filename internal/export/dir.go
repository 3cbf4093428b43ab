package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes documents as pretty-printed JSON files in a local
// directory. Each write goes through a temp file and rename so an
// interrupted run never leaves a truncated document behind.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if it does not exist and returns a sink
// writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Write(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data = append(data, '\n')

	target := filepath.Join(s.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *DirSink) Close() error { return nil }
