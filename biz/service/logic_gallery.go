package service

import (
	"context"

	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
)

// --------------------- Gallery Operations ---------------------

func (l *Logic) CreateGallery(ctx context.Context, g *model.Gallery) error {
	return l.galleryDAO.Create(ctx, l.db, g)
}

func (l *Logic) SaveGallery(ctx context.Context, g *model.Gallery) error {
	return l.galleryDAO.Save(ctx, l.db, g)
}

func (l *Logic) DeleteGallery(ctx context.Context, id uint) error {
	return l.galleryDAO.Delete(ctx, l.db, id)
}

func (l *Logic) GetGallery(ctx context.Context, id uint) (*model.Gallery, error) {
	g, err := l.galleryDAO.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, notFound(err, ErrGalleryNotFound)
	}
	return g, nil
}

func (l *Logic) GetGalleryByScopeKey(ctx context.Context, scopeKey string) (*model.Gallery, error) {
	g, err := l.galleryDAO.GetByScopeKey(ctx, l.db, scopeKey)
	if err != nil {
		return nil, notFound(err, ErrGalleryNotFound)
	}
	return g, nil
}

func (l *Logic) GallerySlugTaken(ctx context.Context, scopeKey string, excludeID uint) (bool, error) {
	return l.galleryDAO.ScopeKeyExists(ctx, l.db, scopeKey, excludeID)
}

func (l *Logic) ListGalleries(ctx context.Context, tenantID *uint, filter db.GalleryFilter) ([]model.Gallery, error) {
	return l.galleryDAO.ListForTenant(ctx, l.db, tenantID, filter)
}

// --------------------- Gallery Image Operations ---------------------

func (l *Logic) CreateGalleryImage(ctx context.Context, img *model.GalleryImage) error {
	return l.galleryImageDAO.Create(ctx, l.db, img)
}

func (l *Logic) SaveGalleryImage(ctx context.Context, img *model.GalleryImage) error {
	return l.galleryImageDAO.Save(ctx, l.db, img)
}

func (l *Logic) DeleteGalleryImage(ctx context.Context, id uint) error {
	return l.galleryImageDAO.Delete(ctx, l.db, id)
}

func (l *Logic) DeleteGalleryImages(ctx context.Context, galleryID uint) error {
	return l.galleryImageDAO.DeleteByGallery(ctx, l.db, galleryID)
}

func (l *Logic) GetGalleryImage(ctx context.Context, id uint) (*model.GalleryImage, error) {
	img, err := l.galleryImageDAO.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, notFound(err, ErrGalleryImageNotFound)
	}
	return img, nil
}

func (l *Logic) ListGalleryImages(ctx context.Context, galleryID uint, activeOnly bool) ([]model.GalleryImage, error) {
	return l.galleryImageDAO.ListByGallery(ctx, l.db, galleryID, activeOnly)
}

func (l *Logic) ListGalleryImageIDs(ctx context.Context, galleryID uint) ([]uint, error) {
	return l.galleryImageDAO.ListIDs(ctx, l.db, galleryID)
}

func (l *Logic) CountGalleryImages(ctx context.Context, galleryID uint) (int64, error) {
	return l.galleryImageDAO.CountByGallery(ctx, l.db, galleryID)
}

func (l *Logic) SetImageSortOrder(ctx context.Context, galleryID, id uint, order int) error {
	return notFound(l.galleryImageDAO.UpdateSortOrder(ctx, l.db, galleryID, id, order), ErrGalleryImageNotFound)
}
