package service

import (
	"context"

	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
)

// --------------------- Media Operations ---------------------

func (l *Logic) CreateMedia(ctx context.Context, m *model.MediaAsset) error {
	return l.mediaDAO.Create(ctx, l.db, m)
}

func (l *Logic) SaveMedia(ctx context.Context, m *model.MediaAsset) error {
	return l.mediaDAO.Save(ctx, l.db, m)
}

func (l *Logic) UpdateMediaColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	return notFound(l.mediaDAO.UpdateColumns(ctx, l.db, id, values), ErrMediaNotFound)
}

func (l *Logic) DeleteMedia(ctx context.Context, id uint) error {
	return l.mediaDAO.Delete(ctx, l.db, id)
}

func (l *Logic) GetMedia(ctx context.Context, id uint) (*model.MediaAsset, error) {
	m, err := l.mediaDAO.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}
	return m, nil
}

func (l *Logic) GetMediaByToken(ctx context.Context, token string) (*model.MediaAsset, error) {
	m, err := l.mediaDAO.GetByToken(ctx, l.db, token)
	if err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}
	return m, nil
}

func (l *Logic) ListMedia(ctx context.Context, filter db.MediaFilter) ([]model.MediaAsset, int64, error) {
	return l.mediaDAO.List(ctx, l.db, filter)
}

func (l *Logic) CountMediaInFolders(ctx context.Context, folderIDs []uint) (int64, error) {
	return l.mediaDAO.CountByFolders(ctx, l.db, folderIDs)
}

// TokenTaken checks both tables that serve token URLs.
func (l *Logic) TokenTaken(ctx context.Context, token string) (bool, error) {
	taken, err := l.mediaDAO.TokenExists(ctx, l.db, token)
	if err != nil || taken {
		return taken, err
	}
	return l.galleryImageDAO.TokenExists(ctx, l.db, token)
}
