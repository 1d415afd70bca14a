package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/pkg/slug"
	"github.com/yi-nology/mediahub/pkg/storage"
	"github.com/yi-nology/mediahub/pkg/validator"
)

// RootFolderName is the display name of lazily created roots.
const RootFolderName = "Root"

// CreateFolderInput describes a new folder. A nil ParentID creates the
// folder directly under the (tenant, disk) root.
type CreateFolderInput struct {
	TenantID *uint
	ParentID *uint
	Disk     string `validate:"required,diskname"`
	Name     string `validate:"required,max=255"`
}

// --------------------- Folder operations ---------------------

// GetRootFolder returns the root of the (tenant, disk) tree, creating it on
// first access. Creation is serialized per scope, and the unique sibling key
// turns a lost race into a re-read of the winner's row.
func (s *Service) GetRootFolder(ctx context.Context, tenantID *uint, disk string) (*model.Folder, error) {
	tenantID = model.NormalizeTenant(tenantID)
	if !s.disks.Has(disk) {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownDisk, disk)
	}

	root, err := s.logic.FindRootFolder(ctx, tenantID, disk)
	if err == nil || !errors.Is(err, ErrFolderNotFound) {
		return root, err
	}

	unlock, err := s.locker.Lock(ctx, lockKeyRoot(tenantID, disk))
	if err != nil {
		return nil, fmt.Errorf("lock root folder: %w", err)
	}
	defer unlock()

	root, err = s.logic.FindRootFolder(ctx, tenantID, disk)
	if err == nil || !errors.Is(err, ErrFolderNotFound) {
		return root, err
	}

	root = &model.Folder{
		TenantID: tenantID,
		Disk:     disk,
		Name:     RootFolderName,
		Path:     model.RootPath,
	}
	if err := s.logic.CreateFolder(ctx, root); err != nil {
		if db.IsUniqueViolation(err) {
			hlog.CtxInfof(ctx, "root folder for %s created concurrently, re-reading", lockKeyRoot(tenantID, disk))
			return s.logic.FindRootFolder(ctx, tenantID, disk)
		}
		return nil, fmt.Errorf("create root folder: %w", err)
	}
	return root, nil
}

// GenerateFolderSlug slugifies name and probes name, name-1, name-2, ...
// until no sibling under parentID uses it. excludeID ignores the folder
// being renamed or moved.
func (s *Service) GenerateFolderSlug(ctx context.Context, name string, tenantID, parentID *uint, disk string, excludeID uint) (string, error) {
	return s.generateFolderSlug(ctx, s.logic, name, tenantID, parentID, disk, excludeID)
}

func (s *Service) generateFolderSlug(ctx context.Context, l *Logic, name string, tenantID, parentID *uint, disk string, excludeID uint) (string, error) {
	return slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return l.FolderSlugTaken(ctx, model.FolderSiblingKey(disk, tenantID, parentID, candidate), excludeID)
	})
}

// CreateFolder adds a child folder with a sibling-unique slug.
func (s *Service) CreateFolder(ctx context.Context, input *CreateFolderInput) (*model.Folder, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid folder: %w", err)
	}
	tenantID := model.NormalizeTenant(input.TenantID)

	var parent *model.Folder
	var err error
	if input.ParentID == nil {
		parent, err = s.GetRootFolder(ctx, tenantID, input.Disk)
	} else {
		parent, err = s.folderInScope(ctx, *input.ParentID, tenantID, input.Disk)
	}
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		folderSlug, err := s.GenerateFolderSlug(ctx, input.Name, tenantID, &parent.ID, input.Disk, 0)
		if err != nil {
			return nil, err
		}
		f := &model.Folder{
			TenantID: tenantID,
			ParentID: &parent.ID,
			Disk:     input.Disk,
			Name:     input.Name,
			Slug:     folderSlug,
			Path:     parent.ChildPath(folderSlug),
		}
		err = s.logic.CreateFolder(ctx, f)
		if err == nil {
			return f, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create folder: %w", err)
		}
	}
	return nil, fmt.Errorf("create folder: slug for %q kept colliding", input.Name)
}

// RenameFolder changes the display name and re-slugs the folder; paths of
// the folder and its descendants follow in one transaction.
func (s *Service) RenameFolder(ctx context.Context, folderID uint, name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, fmt.Errorf("invalid folder name %q", name)
	}
	f, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if f.IsRoot() {
		return nil, ErrRootFolderImmutable
	}
	parent, err := s.logic.GetFolder(ctx, *f.ParentID)
	if err != nil {
		return nil, err
	}

	err = s.logic.Transaction(ctx, func(tl *Logic) error {
		folderSlug, err := s.generateFolderSlug(ctx, tl, name, f.TenantID, f.ParentID, f.Disk, f.ID)
		if err != nil {
			return err
		}
		oldPath := f.Path
		f.Name = name
		f.Slug = folderSlug
		f.Path = parent.ChildPath(folderSlug)
		if err := tl.SaveFolder(ctx, f); err != nil {
			return err
		}
		return relocateDescendants(ctx, tl, f, oldPath)
	})
	if err != nil {
		return nil, fmt.Errorf("rename folder %d: %w", folderID, err)
	}
	return f, nil
}

func (s *Service) GetFolder(ctx context.Context, folderID uint) (*model.Folder, error) {
	return s.logic.GetFolder(ctx, folderID)
}

func (s *Service) ListChildren(ctx context.Context, folderID uint) ([]model.Folder, error) {
	return s.logic.ListChildFolders(ctx, folderID)
}

// ListFolderTree returns every folder of a (tenant, disk) tree in path order.
func (s *Service) ListFolderTree(ctx context.Context, tenantID *uint, disk string) ([]model.Folder, error) {
	return s.logic.ListFolderTree(ctx, tenantID, disk)
}

// MoveTo re-parents a folder. It returns false without changes when the
// folder is a root, the target is the folder itself or one of its
// descendants, or the target lies in another tenant or disk. On success the
// folder is re-slugged under the new parent when needed and the paths of the
// folder and all descendants are recomputed in one transaction.
func (s *Service) MoveTo(ctx context.Context, folderID, newParentID uint) (bool, error) {
	f, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return false, err
	}
	if !f.CanDelete() || newParentID == f.ID {
		return false, nil
	}
	parent, err := s.logic.GetFolder(ctx, newParentID)
	if err != nil {
		return false, err
	}
	if parent.Disk != f.Disk || !model.SameTenant(parent.TenantID, f.TenantID) {
		return false, nil
	}
	if f.ParentID != nil && *f.ParentID == parent.ID {
		return true, nil
	}
	descendant, err := s.isAncestor(ctx, f.ID, parent)
	if err != nil {
		return false, err
	}
	if descendant {
		return false, nil
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		moved := *f
		err = s.logic.Transaction(ctx, func(tl *Logic) error {
			folderSlug, err := s.generateFolderSlug(ctx, tl, f.Name, f.TenantID, &parent.ID, f.Disk, f.ID)
			if err != nil {
				return err
			}
			moved.ParentID = &parent.ID
			moved.Slug = folderSlug
			moved.Path = parent.ChildPath(folderSlug)
			if err := tl.SaveFolder(ctx, &moved); err != nil {
				return err
			}
			return relocateDescendants(ctx, tl, &moved, f.Path)
		})
		if err == nil {
			*f = moved
			return true, nil
		}
		if !db.IsUniqueViolation(err) {
			return false, fmt.Errorf("move folder %d: %w", folderID, err)
		}
	}
	return false, fmt.Errorf("move folder %d: %w", folderID, err)
}

// Breadcrumbs returns the chain root..self.
func (s *Service) Breadcrumbs(ctx context.Context, folderID uint) ([]model.Folder, error) {
	f, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	chain := []model.Folder{*f}
	visited := map[uint]bool{f.ID: true}
	for cur := f; cur.ParentID != nil; {
		if visited[*cur.ParentID] {
			return nil, fmt.Errorf("folder %d: cycle in parent chain", folderID)
		}
		parent, err := s.logic.GetFolder(ctx, *cur.ParentID)
		if err != nil {
			return nil, err
		}
		visited[parent.ID] = true
		chain = append(chain, *parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// CountMediaRecursive counts media in the folder and all its descendants.
func (s *Service) CountMediaRecursive(ctx context.Context, folderID uint) (int64, error) {
	f, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}
	descendants, err := s.logic.ListDescendantFolders(ctx, f)
	if err != nil {
		return 0, err
	}
	ids := make([]uint, 0, len(descendants)+1)
	ids = append(ids, f.ID)
	for i := range descendants {
		ids = append(ids, descendants[i].ID)
	}
	return s.logic.CountMediaInFolders(ctx, ids)
}

// DeleteFolder removes an empty, non-root folder. It returns false for
// roots and for folders that still hold subfolders or media; callers decide
// what happens to contents.
func (s *Service) DeleteFolder(ctx context.Context, folderID uint) (bool, error) {
	f, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return false, err
	}
	if !f.CanDelete() {
		return false, nil
	}
	children, err := s.logic.CountChildFolders(ctx, f.ID)
	if err != nil {
		return false, err
	}
	media, err := s.logic.CountMediaInFolders(ctx, []uint{f.ID})
	if err != nil {
		return false, err
	}
	if children > 0 || media > 0 {
		return false, nil
	}
	if err := s.logic.DeleteFolder(ctx, f.ID); err != nil {
		return false, err
	}
	return true, nil
}

// --------------------- Folder helpers ---------------------

// isAncestor walks up from node and reports whether ancestorID is on the way.
func (s *Service) isAncestor(ctx context.Context, ancestorID uint, node *model.Folder) (bool, error) {
	visited := map[uint]bool{}
	for cur := node; cur.ParentID != nil; {
		if *cur.ParentID == ancestorID {
			return true, nil
		}
		if visited[*cur.ParentID] {
			return false, fmt.Errorf("folder %d: cycle in parent chain", node.ID)
		}
		visited[*cur.ParentID] = true
		parent, err := s.logic.GetFolder(ctx, *cur.ParentID)
		if err != nil {
			return false, err
		}
		cur = parent
	}
	return false, nil
}

// relocateDescendants rewrites the path prefix of every folder below f after
// f moved from oldPath.
func relocateDescendants(ctx context.Context, l *Logic, f *model.Folder, oldPath string) error {
	if oldPath == f.Path {
		return nil
	}
	before := *f
	before.Path = oldPath
	descendants, err := l.ListDescendantFolders(ctx, &before)
	if err != nil {
		return err
	}
	for i := range descendants {
		d := &descendants[i]
		if err := l.UpdateFolderPath(ctx, d.ID, f.Path+strings.TrimPrefix(d.Path, oldPath)); err != nil {
			return err
		}
	}
	return nil
}
