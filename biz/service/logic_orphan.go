package service

import (
	"context"

	"github.com/yi-nology/mediahub/biz/dal/model"
)

// --------------------- Orphan Operations ---------------------

func (l *Logic) CreateOrphan(ctx context.Context, o *model.StorageOrphan) error {
	return l.orphanDAO.Create(ctx, l.db, o)
}

func (l *Logic) ListOrphans(ctx context.Context, limit int) ([]model.StorageOrphan, error) {
	return l.orphanDAO.List(ctx, l.db, limit)
}

func (l *Logic) ResolveOrphan(ctx context.Context, id uint) error {
	return l.orphanDAO.Delete(ctx, l.db, id)
}

func (l *Logic) RecordOrphanAttempt(ctx context.Context, id uint, reason string) error {
	return l.orphanDAO.RecordAttempt(ctx, l.db, id, reason)
}

// DropPendingCopies discards copy retries for a media row that is going away.
func (l *Logic) DropPendingCopies(ctx context.Context, mediaID uint) (int64, error) {
	return l.orphanDAO.DeleteForMedia(ctx, l.db, mediaID, model.OrphanCopy)
}
