package service

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/db"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound        = errors.New("media not found")
	ErrFolderNotFound       = errors.New("folder not found")
	ErrGalleryNotFound      = errors.New("gallery not found")
	ErrGalleryImageNotFound = errors.New("gallery image not found")
	ErrFolderScopeMismatch  = errors.New("folder belongs to another tenant or disk")
	ErrCrossDiskCopy        = errors.New("copy across disks is not supported")
	ErrInvalidOrder         = errors.New("ordered ids must be a permutation of the gallery images")
	ErrRootFolderImmutable  = errors.New("root folder cannot be renamed")
	ErrNotImage             = errors.New("media is not an image")
)

// Logic contains business rules on top of data persistence.
type Logic struct {
	db              *gorm.DB
	mediaDAO        *db.MediaDAO
	folderDAO       *db.FolderDAO
	galleryDAO      *db.GalleryDAO
	galleryImageDAO *db.GalleryImageDAO
	orphanDAO       *db.OrphanDAO
}

func NewLogic(dbConn *gorm.DB) *Logic {
	return &Logic{
		db:              dbConn,
		mediaDAO:        db.NewMediaDAO(),
		folderDAO:       db.NewFolderDAO(),
		galleryDAO:      db.NewGalleryDAO(),
		galleryImageDAO: db.NewGalleryImageDAO(),
		orphanDAO:       db.NewOrphanDAO(),
	}
}

// Transaction runs fn with a Logic bound to one database transaction.
func (l *Logic) Transaction(ctx context.Context, fn func(tl *Logic) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bound := *l
		bound.db = tx
		return fn(&bound)
	})
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
