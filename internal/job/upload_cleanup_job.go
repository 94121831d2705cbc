package job

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/docstore"
)

// UploadCleanupJob removes raw upload files whose document record no
// longer exists. Orphans appear when a record delete succeeds but the
// file release fails.
type UploadCleanupJob struct {
	store docstore.Store
	dir   string
}

func NewUploadCleanupJob(store docstore.Store, dir string) *UploadCleanupJob {
	return &UploadCleanupJob{store: store, dir: dir}
}

func (j *UploadCleanupJob) Name() string {
	return "upload_cleanup"
}

func (j *UploadCleanupJob) Run(ctx context.Context) error {
	if j.store == nil || j.dir == "" {
		return nil
	}
	docs, err := j.store.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		known[doc.ID] = struct{}{}
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	logger := logutil.GetLogger(ctx)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if _, ok := known[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			logger.Warn("remove orphan upload failed", zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("removed orphan uploads", zap.Int("count", removed))
	}
	return nil
}
