package service

import (
	"context"

	"github.com/yi-nology/mediahub/biz/dal/model"
)

// --------------------- Folder Operations ---------------------

func (l *Logic) CreateFolder(ctx context.Context, f *model.Folder) error {
	return l.folderDAO.Create(ctx, l.db, f)
}

func (l *Logic) SaveFolder(ctx context.Context, f *model.Folder) error {
	return l.folderDAO.Save(ctx, l.db, f)
}

func (l *Logic) UpdateFolderPath(ctx context.Context, id uint, path string) error {
	return l.folderDAO.UpdatePath(ctx, l.db, id, path)
}

func (l *Logic) DeleteFolder(ctx context.Context, id uint) error {
	return l.folderDAO.Delete(ctx, l.db, id)
}

func (l *Logic) GetFolder(ctx context.Context, id uint) (*model.Folder, error) {
	f, err := l.folderDAO.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, notFound(err, ErrFolderNotFound)
	}
	return f, nil
}

func (l *Logic) FindRootFolder(ctx context.Context, tenantID *uint, disk string) (*model.Folder, error) {
	f, err := l.folderDAO.FindRoot(ctx, l.db, tenantID, disk)
	if err != nil {
		return nil, notFound(err, ErrFolderNotFound)
	}
	return f, nil
}

func (l *Logic) ListChildFolders(ctx context.Context, parentID uint) ([]model.Folder, error) {
	return l.folderDAO.ListChildren(ctx, l.db, parentID)
}

func (l *Logic) ListDescendantFolders(ctx context.Context, f *model.Folder) ([]model.Folder, error) {
	return l.folderDAO.ListDescendants(ctx, l.db, f)
}

func (l *Logic) ListFolderTree(ctx context.Context, tenantID *uint, disk string) ([]model.Folder, error) {
	return l.folderDAO.ListByScope(ctx, l.db, tenantID, disk)
}

func (l *Logic) FolderSlugTaken(ctx context.Context, siblingKey string, excludeID uint) (bool, error) {
	return l.folderDAO.SiblingSlugExists(ctx, l.db, siblingKey, excludeID)
}

func (l *Logic) CountChildFolders(ctx context.Context, id uint) (int64, error) {
	return l.folderDAO.CountChildren(ctx, l.db, id)
}
