package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/biz/service"
	"github.com/yi-nology/mediahub/pkg/metrics"
)

func TestSweepOrphans(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := newTestService(t, service.WithMetrics(metrics.NewStorageMetrics(reg)))
	ctx := context.Background()

	writeObject(t, env.mediaRoot, "stale/a.png", []byte("a"))
	writeObject(t, env.mediaRoot, "src/b.png", []byte("b"))
	writeObject(t, env.mediaRoot, "done/c.png", []byte("c"))
	for _, o := range []*model.StorageOrphan{
		{Disk: "media", Path: "stale/a.png", Operation: model.OrphanDelete, Reason: "busy"},
		{Disk: "media", Path: "dst/b.png", SourcePath: "src/b.png", Operation: model.OrphanCopy, Reason: "io"},
		{Disk: "media", Path: "done/c.png", SourcePath: "src/c.png", Operation: model.OrphanCopy, Reason: "timeout"},
		{Disk: "bare", Path: "x.png", Operation: model.OrphanDelete, Reason: "no credentials"},
		{Disk: "retired", Path: "y.png", Operation: model.OrphanDelete, Reason: "unknown disk"},
	} {
		require.NoError(t, env.db.Create(o).Error)
	}

	result, err := env.svc.SweepOrphans(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, service.SweepResult{Resolved: 3, Retained: 2}, result)

	assert.False(t, objectExists(env.mediaRoot, "stale/a.png"))
	assert.True(t, objectExists(env.mediaRoot, "dst/b.png"))

	left, err := env.svc.ListOrphans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 2)
	for _, o := range left {
		assert.Equal(t, 1, o.Attempts)
		assert.NotEmpty(t, o.Reason)
	}
	assert.Equal(t, "bare", left[0].Disk)
	assert.Equal(t, "retired", left[1].Disk)

	result, err = env.svc.SweepOrphans(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, service.SweepResult{Retained: 1}, result)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "mediahub_orphans_sweep_outcomes_total"))
}

func TestSweepOrphansSkipsCopiesOfDeletedMedia(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	folder, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "local", Name: "copies"})
	require.NoError(t, err)
	src := registerMedia(t, env.svc, &service.RegisterInput{Disk: "local", Path: "late/src.png", Filename: "src.png"})

	dup, err := env.svc.CopyToFolder(ctx, src.ID, folder.ID)
	require.NoError(t, err)
	orphans, err := env.svc.ListOrphans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	require.NoError(t, env.svc.DeleteWithFile(ctx, dup.ID))
	orphans, err = env.svc.ListOrphans(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orphans, "pending copy goes with its row")

	writeObject(t, env.localRoot, "late/src.png", []byte("src"))
	result, err := env.svc.SweepOrphans(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, service.SweepResult{}, result)
	assert.False(t, objectExists(env.localRoot, dup.Path))

	t.Run("entry left behind by an older run", func(t *testing.T) {
		gone := dup.ID
		require.NoError(t, env.db.Create(&model.StorageOrphan{
			Disk: "local", Path: dup.Path, SourcePath: "late/src.png", Operation: model.OrphanCopy, Reason: "io", MediaID: &gone,
		}).Error)

		result, err := env.svc.SweepOrphans(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, service.SweepResult{Resolved: 1}, result)
		assert.False(t, objectExists(env.localRoot, dup.Path))

		left, err := env.svc.ListOrphans(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestDeleteWithFileOnRetiredDisk(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	m := &model.MediaAsset{PublicToken: "Rt0123456789abcd", Disk: "retired", Path: "old/a.png", Filename: "a.png"}
	require.NoError(t, env.db.Create(m).Error)
	require.NoError(t, env.svc.DeleteWithFile(ctx, m.ID))

	orphans, err := env.svc.ListOrphans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1, "no entry for the missing thumbnail")
	assert.Equal(t, "old/a.png", orphans[0].Path)
	assert.Equal(t, model.OrphanDelete, orphans[0].Operation)
}
