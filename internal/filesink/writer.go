package filesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hamba/avro/v2/ocf"

	"funnel/internal/config"
	"funnel/internal/constants"
	"funnel/internal/logger"
	"funnel/internal/window"
	"funnel/pkg/errors"
	"funnel/pkg/metrics"
	"funnel/pkg/models"
)

// recordSchema matches the original output: Avro files of plain strings,
// one record per raw event body.
const recordSchema = `"string"`

// AvroWriter serializes a fired window's events into a fixed number of
// Avro OCF shard files under the configured path prefix. Shard assignment
// is deterministic round-robin over the buffer order. Each file is
// written to a temp file and renamed so a crashed flush never leaves a
// partial shard behind.
type AvroWriter struct {
	pathPrefix string
	suffix     string
	shardCount int
	tempDir    string
	logger     logger.Logger
}

func NewAvroWriter(cfg config.FileStoreConfig, log logger.Logger) *AvroWriter {
	suffix := cfg.Suffix
	if suffix == "" {
		suffix = constants.DefaultFileSuffix
	}
	shards := cfg.ShardCount
	if shards <= 0 {
		shards = constants.DefaultShardCount
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = filepath.Dir(cfg.PathPrefix)
	}

	return &AvroWriter{
		pathPrefix: cfg.PathPrefix,
		suffix:     suffix,
		shardCount: shards,
		tempDir:    tempDir,
		logger:     log,
	}
}

// ShardFor returns the shard index for the event at position idx in the
// window buffer.
func (w *AvroWriter) ShardFor(idx int) int {
	return idx % w.shardCount
}

// ShardPath names one shard file; the window boundaries and shard index
// embedded in the name keep outputs collision-free across windows.
func (w *AvroWriter) ShardPath(pane window.Pane, shard int) string {
	return fmt.Sprintf("%s-%s-%05d-of-%05d%s",
		w.pathPrefix, pane.Label(), shard, w.shardCount, w.suffix)
}

// Flush writes every shard for the pane. All-or-nothing per shard file;
// on error the caller retries the whole pane, which simply rewrites the
// same deterministic shard set.
func (w *AvroWriter) Flush(ctx context.Context, pane window.Pane) error {
	shards := make([][]models.Event, w.shardCount)
	for i, ev := range pane.Events {
		s := w.ShardFor(i)
		shards[s] = append(shards[s], ev)
	}

	for shard, events := range shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeShard(pane, shard, events); err != nil {
			return errors.Wrap(err, errors.ErrSinkWrite)
		}
		metrics.ShardFilesWrittenTotal.Inc()
	}

	w.logger.InfowCtx(ctx, "Window shards written",
		"window", pane.Label(),
		"events", len(pane.Events),
		"shards", w.shardCount,
	)
	return nil
}

func (w *AvroWriter) writeShard(pane window.Pane, shard int, events []models.Event) error {
	dest := w.ShardPath(pane, shard)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.tempDir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp shard file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc, err := ocf.NewEncoder(recordSchema, tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to create avro encoder: %w", err)
	}

	for _, ev := range events {
		if err := enc.Encode(ev.RawBody); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to finalize avro file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close shard file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move shard file into place: %w", err)
	}
	return nil
}
