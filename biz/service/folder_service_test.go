package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/biz/service"
	"github.com/yi-nology/mediahub/pkg/storage"
)

func TestGetRootFolderIdempotent(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	first, err := env.svc.GetRootFolder(ctx, model.Tenant(7), "media")
	require.NoError(t, err)
	assert.Equal(t, model.RootPath, first.Path)
	assert.Nil(t, first.ParentID)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root, err := env.svc.GetRootFolder(ctx, model.Tenant(7), "media")
			errs[i] = err
			if err == nil {
				ids[i] = root.ID
			}
		}(i)
	}
	wg.Wait()
	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, first.ID, ids[i])
	}

	var count int64
	require.NoError(t, env.db.Model(&model.Folder{}).Where("parent_id IS NULL AND disk = ? AND tenant_id = ?", "media", 7).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	t.Run("legacy zero tenant shares the global root", func(t *testing.T) {
		global, err := env.svc.GetRootFolder(ctx, nil, "media")
		require.NoError(t, err)
		zero, err := env.svc.GetRootFolder(ctx, model.Tenant(0), "media")
		require.NoError(t, err)
		assert.Equal(t, global.ID, zero.ID)
		assert.NotEqual(t, first.ID, global.ID)
	})

	t.Run("roots are per disk", func(t *testing.T) {
		other, err := env.svc.GetRootFolder(ctx, model.Tenant(7), "local")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})

	t.Run("unknown disk", func(t *testing.T) {
		_, err := env.svc.GetRootFolder(ctx, nil, "nope")
		assert.True(t, errors.Is(err, storage.ErrUnknownDisk))
	})
}

func TestCreateFolderSlugs(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	a, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", Name: "Été Photos"})
	require.NoError(t, err)
	assert.Equal(t, "ete-photos", a.Slug)
	assert.Equal(t, "/ete-photos/", a.Path)

	b, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", Name: "ete photos"})
	require.NoError(t, err)
	assert.Equal(t, "ete-photos-1", b.Slug)

	child, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", ParentID: &a.ID, Name: "Ete Photos"})
	require.NoError(t, err)
	assert.Equal(t, "ete-photos", child.Slug, "siblings are scoped by parent")
	assert.Equal(t, "/ete-photos/ete-photos/", child.Path)

	_, err = env.svc.CreateFolder(ctx, &service.CreateFolderInput{TenantID: model.Tenant(3), Disk: "media", ParentID: &a.ID, Name: "x"})
	assert.ErrorIs(t, err, service.ErrFolderScopeMismatch)

	_, err = env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "Bad Disk", Name: "x"})
	assert.Error(t, err)
}

func TestMoveToIsCycleSafe(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	mk := func(name string, parent *uint) *model.Folder {
		f, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", ParentID: parent, Name: name})
		require.NoError(t, err)
		return f
	}
	root, err := env.svc.GetRootFolder(ctx, nil, "media")
	require.NoError(t, err)
	a := mk("a", nil)
	b := mk("b", &a.ID)
	c := mk("c", &b.ID)
	d := mk("d", nil)

	cases := []struct {
		name     string
		folder   uint
		target   uint
		expected bool
	}{
		{"root cannot move", root.ID, d.ID, false},
		{"self", a.ID, a.ID, false},
		{"direct child", a.ID, b.ID, false},
		{"deep descendant", a.ID, c.ID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := env.svc.MoveTo(ctx, tc.folder, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}

	tenantFolder, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{TenantID: model.Tenant(9), Disk: "media", Name: "t"})
	require.NoError(t, err)
	ok, err := env.svc.MoveTo(ctx, a.ID, tenantFolder.ID)
	require.NoError(t, err)
	assert.False(t, ok, "other tenant")

	otherDisk, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "local", Name: "elsewhere"})
	require.NoError(t, err)
	ok, err = env.svc.MoveTo(ctx, a.ID, otherDisk.ID)
	require.NoError(t, err)
	assert.False(t, ok, "other disk")

	unchanged, err := env.svc.GetFolder(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a/", unchanged.Path)

	t.Run("subtree paths follow the move", func(t *testing.T) {
		ok, err := env.svc.MoveTo(ctx, b.ID, d.ID)
		require.NoError(t, err)
		require.True(t, ok)

		moved, err := env.svc.GetFolder(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "/d/b/", moved.Path)
		assert.Equal(t, d.ID, *moved.ParentID)

		grandchild, err := env.svc.GetFolder(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "/d/b/c/", grandchild.Path)
	})

	t.Run("slug collision under the new parent", func(t *testing.T) {
		mk("b", nil)
		ok, err := env.svc.MoveTo(ctx, b.ID, root.ID)
		require.NoError(t, err)
		require.True(t, ok)

		moved, err := env.svc.GetFolder(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "b-1", moved.Slug)
		assert.Equal(t, "/b-1/", moved.Path)

		grandchild, err := env.svc.GetFolder(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "/b-1/c/", grandchild.Path)
	})

	t.Run("former ancestor can move once the subtree left", func(t *testing.T) {
		ok, err := env.svc.MoveTo(ctx, a.ID, d.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRenameFolderRelocatesDescendants(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	a, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", Name: "Holiday"})
	require.NoError(t, err)
	b, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", ParentID: &a.ID, Name: "Day 1"})
	require.NoError(t, err)

	renamed, err := env.svc.RenameFolder(ctx, a.ID, "Vacation 2024")
	require.NoError(t, err)
	assert.Equal(t, "vacation-2024", renamed.Slug)
	assert.Equal(t, "/vacation-2024/", renamed.Path)

	child, err := env.svc.GetFolder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/vacation-2024/day-1/", child.Path)

	root, err := env.svc.GetRootFolder(ctx, nil, "media")
	require.NoError(t, err)
	_, err = env.svc.RenameFolder(ctx, root.ID, "Top")
	assert.ErrorIs(t, err, service.ErrRootFolderImmutable)
}

func TestBreadcrumbsAndCounts(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	a, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", Name: "a"})
	require.NoError(t, err)
	b, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", ParentID: &a.ID, Name: "b"})
	require.NoError(t, err)

	crumbs, err := env.svc.Breadcrumbs(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, crumbs, 3)
	assert.Equal(t, model.RootPath, crumbs[0].Path)
	assert.Equal(t, a.ID, crumbs[1].ID)
	assert.Equal(t, b.ID, crumbs[2].ID)

	registerMedia(t, env.svc, &service.RegisterInput{Disk: "media", FolderID: &a.ID, Path: "x/1.png", Filename: "1.png"})
	registerMedia(t, env.svc, &service.RegisterInput{Disk: "media", FolderID: &b.ID, Path: "x/2.png", Filename: "2.png"})
	registerMedia(t, env.svc, &service.RegisterInput{Disk: "media", FolderID: &b.ID, Path: "x/3.png", Filename: "3.png"})

	n, err := env.svc.CountMediaRecursive(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = env.svc.CountMediaRecursive(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	tree, err := env.svc.ListFolderTree(ctx, nil, "media")
	require.NoError(t, err)
	assert.Len(t, tree, 3)

	children, err := env.svc.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, b.ID, children[0].ID)
}

func TestDeleteFolderPolicy(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	root, err := env.svc.GetRootFolder(ctx, nil, "media")
	require.NoError(t, err)
	a, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", Name: "a"})
	require.NoError(t, err)
	b, err := env.svc.CreateFolder(ctx, &service.CreateFolderInput{Disk: "media", ParentID: &a.ID, Name: "b"})
	require.NoError(t, err)

	ok, err := env.svc.DeleteFolder(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, ok, "root")

	ok, err = env.svc.DeleteFolder(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "has children")

	m := registerMedia(t, env.svc, &service.RegisterInput{Disk: "media", FolderID: &b.ID, Path: "b.png", Filename: "b.png"})
	ok, err = env.svc.DeleteFolder(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "has media")

	_, err = env.svc.MoveToFolder(ctx, m.ID, nil)
	require.NoError(t, err)
	ok, err = env.svc.DeleteFolder(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = env.svc.GetFolder(ctx, b.ID)
	assert.ErrorIs(t, err, service.ErrFolderNotFound)
}
