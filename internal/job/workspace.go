package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/guiyumin/clipgrab/internal/metrics"
)

// Workspace is a uniquely named directory owned by one download job
type Workspace struct {
	ID  string
	Dir string

	once sync.Once
	err  error
}

// NewWorkspace creates a fresh directory under root. The caller owns it
// and must call Cleanup.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(root, id)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	metrics.ActiveWorkspaces.Inc()
	return &Workspace{ID: id, Dir: dir}, nil
}

// Cleanup removes the workspace and everything in it. Safe to call more
// than once.
func (w *Workspace) Cleanup() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Dir)
		metrics.ActiveWorkspaces.Dec()
	})
	return w.err
}
