package filesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamba/avro/v2/ocf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel/internal/config"
	"funnel/internal/logger"
	"funnel/internal/window"
	"funnel/pkg/errors"
	"funnel/pkg/models"
)

func testPane(bodies ...string) window.Pane {
	start := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	pane := window.Pane{Start: start, End: start.Add(5 * time.Minute)}
	for _, b := range bodies {
		pane.Events = append(pane.Events, models.Event{
			EventType:    "Session",
			EventVersion: "V1",
			RawBody:      b,
		})
	}
	return pane
}

func readShard(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := ocf.NewDecoder(f)
	require.NoError(t, err)

	var records []string
	for dec.HasNext() {
		var rec string
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	require.NoError(t, dec.Error())
	return records
}

func TestFlushWritesEveryRecordExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: filepath.Join(dir, "raw-events"),
		ShardCount: 3,
	}, logger.NopLogger())

	bodies := make([]string, 10)
	for i := range bodies {
		bodies[i] = fmt.Sprintf(`{"eventType":"Session","seq":%d}`, i)
	}
	pane := testPane(bodies...)

	require.NoError(t, w.Flush(context.Background(), pane))

	seen := map[string]int{}
	for shard := 0; shard < 3; shard++ {
		for _, rec := range readShard(t, w.ShardPath(pane, shard)) {
			seen[rec]++
		}
	}
	require.Len(t, seen, 10)
	for _, b := range bodies {
		assert.Equal(t, 1, seen[b], "record must appear in exactly one shard")
	}
}

func TestFlushRoundRobinShardAssignment(t *testing.T) {
	dir := t.TempDir()
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: filepath.Join(dir, "raw-events"),
		ShardCount: 2,
	}, logger.NopLogger())

	pane := testPane("a", "b", "c", "d", "e")
	require.NoError(t, w.Flush(context.Background(), pane))

	assert.Equal(t, []string{"a", "c", "e"}, readShard(t, w.ShardPath(pane, 0)))
	assert.Equal(t, []string{"b", "d"}, readShard(t, w.ShardPath(pane, 1)))
}

func TestFlushWritesEmptyShards(t *testing.T) {
	dir := t.TempDir()
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: filepath.Join(dir, "raw-events"),
		ShardCount: 4,
	}, logger.NopLogger())

	// Fewer events than shards: the trailing shards are valid empty files.
	pane := testPane("only")
	require.NoError(t, w.Flush(context.Background(), pane))

	assert.Equal(t, []string{"only"}, readShard(t, w.ShardPath(pane, 0)))
	for shard := 1; shard < 4; shard++ {
		assert.Empty(t, readShard(t, w.ShardPath(pane, shard)))
	}
}

func TestShardPathEmbedsWindowAndShard(t *testing.T) {
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: "/data/out/raw-events",
		ShardCount: 8,
	}, logger.NopLogger())

	pane := testPane()
	got := w.ShardPath(pane, 3)

	assert.Equal(t,
		"/data/out/raw-events-2024-03-07T10-00-00Z-2024-03-07T10-05-00Z-00003-of-00008.avro",
		got)
}

func TestFlushLeavesNoPartialFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "out", "raw-events")
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: prefix,
		ShardCount: 1,
		TempDir:    filepath.Join(dir, "missing-temp-dir"),
	}, logger.NopLogger())

	pane := testPane("a")
	err := w.Flush(context.Background(), pane)
	require.Error(t, err)
	assert.True(t, errors.IsSinkWrite(err))

	_, statErr := os.Stat(w.ShardPath(pane, 0))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFlushHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: filepath.Join(dir, "raw-events"),
		ShardCount: 2,
	}, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Flush(ctx, testPane("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultsApplied(t *testing.T) {
	w := NewAvroWriter(config.FileStoreConfig{
		PathPrefix: "/data/out/raw-events",
	}, logger.NopLogger())

	assert.Equal(t, 8, w.shardCount)
	assert.Equal(t, ".avro", w.suffix)
	assert.Equal(t, "/data/out", w.tempDir)
}
