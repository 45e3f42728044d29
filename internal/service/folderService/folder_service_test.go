package folderService_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/fileInfo"
	"fileinbox-service/internal/model/folder"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/workspace"
	"fileinbox-service/internal/repository/folderRepo"
	"fileinbox-service/internal/service/folderService"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFolderStore struct {
	folders  map[uuid.UUID]*folder.Folder
	cascades []folderRepo.Cascade
}

func newFakeFolderStore() *fakeFolderStore {
	return &fakeFolderStore{folders: make(map[uuid.UUID]*folder.Folder)}
}

func (s *fakeFolderStore) Create(_ context.Context, f *folder.Folder) error {
	copied := *f
	s.folders[f.ID] = &copied
	return nil
}

func (s *fakeFolderStore) GetByID(_ context.Context, id uuid.UUID) (*folder.Folder, error) {
	f, ok := s.folders[id]
	if !ok {
		return nil, nil
	}
	copied := *f
	return &copied, nil
}

func (s *fakeFolderStore) Rename(_ context.Context, id uuid.UUID, newName string) error {
	s.folders[id].Name = newName
	return nil
}

func (s *fakeFolderStore) Move(_ context.Context, id uuid.UUID, newParentID *uuid.UUID, name string) error {
	s.folders[id].ParentFolderID = newParentID
	s.folders[id].Name = name
	return nil
}

func (s *fakeFolderStore) Subtree(_ context.Context, rootID uuid.UUID) ([]*folder.Folder, error) {
	root, ok := s.folders[rootID]
	if !ok {
		return nil, nil
	}
	out := []*folder.Folder{root}
	for i := 0; i < len(out); i++ {
		for _, f := range s.folders {
			if f.ParentFolderID != nil && *f.ParentFolderID == out[i].ID {
				out = append(out, f)
			}
		}
	}
	copies := make([]*folder.Folder, len(out))
	for i, f := range out {
		c := *f
		copies[i] = &c
	}
	return copies, nil
}

func (s *fakeFolderStore) ListChildren(_ context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]*folder.Folder, error) {
	var out []*folder.Folder
	for _, f := range s.folders {
		if f.WorkspaceID == workspaceID && sameID(f.ParentFolderID, parentID) {
			c := *f
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fakeFolderStore) SiblingNames(_ context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) ([]string, error) {
	var names []string
	for _, f := range s.folders {
		if f.WorkspaceID == workspaceID && sameID(f.ParentFolderID, parentID) {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

func (s *fakeFolderStore) CommitCascade(_ context.Context, cd folderRepo.Cascade) error {
	s.cascades = append(s.cascades, cd)
	for _, id := range cd.FolderIDs {
		delete(s.folders, id)
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeFileStore struct {
	files []*fileInfo.File
}

func (s *fakeFileStore) ListByFolders(_ context.Context, folderIDs []uuid.UUID) ([]*fileInfo.File, error) {
	idSet := make(map[uuid.UUID]bool, len(folderIDs))
	for _, id := range folderIDs {
		idSet[id] = true
	}
	var out []*fileInfo.File
	for _, f := range s.files {
		if f.FolderID != nil && idSet[*f.FolderID] {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeWorkspaceStore struct {
	ws map[uuid.UUID]*workspace.Workspace
}

func (s *fakeWorkspaceStore) GetByID(_ context.Context, id uuid.UUID) (*workspace.Workspace, error) {
	w, ok := s.ws[id]
	if !ok {
		return nil, nil
	}
	return w, nil
}

// fakeStorage deletes everything except the keys listed in failing.
type fakeStorage struct {
	deleted []string
	failing map[string]bool
}

func (s *fakeStorage) DeleteFile(_ context.Context, key string) error {
	if s.failing[key] {
		return errors.New("backend down")
	}
	s.deleted = append(s.deleted, key)
	return nil
}

// allowAll authorizes every mutation; permission rules have their own tests.
type allowAll struct{}

func (allowAll) AuthorizeMutation(context.Context, permission.Actor, *folder.Folder, permission.Action, *string) error {
	return nil
}

type env struct {
	svc     *folderService.FolderService
	folders *fakeFolderStore
	files   *fakeFileStore
	storage *fakeStorage
	wsID    uuid.UUID
	owner   permission.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ownerID := uuid.New()
	wsID := uuid.New()
	folders := newFakeFolderStore()
	files := &fakeFileStore{}
	storage := &fakeStorage{failing: map[string]bool{}}
	ws := &fakeWorkspaceStore{ws: map[uuid.UUID]*workspace.Workspace{
		wsID: {ID: wsID, OwnerID: ownerID, StorageLimitBytes: 1 << 30},
	}}
	return &env{
		svc:     folderService.New(folders, files, ws, storage, allowAll{}),
		folders: folders,
		files:   files,
		storage: storage,
		wsID:    wsID,
		owner:   permission.Actor{UserID: &ownerID, Email: "owner@example.com"},
	}
}

func (e *env) mustCreate(t *testing.T, parentID *uuid.UUID, name string) *folder.Folder {
	t.Helper()
	f, err := e.svc.Create(context.Background(), e.owner, e.wsID, parentID, name)
	require.NoError(t, err)
	return f
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("sibling name conflicts get suffixed", func(t *testing.T) {
		e := newEnv(t)
		root := e.mustCreate(t, nil, "inbox")
		a := e.mustCreate(t, &root.ID, "docs")
		b := e.mustCreate(t, &root.ID, "docs")
		c := e.mustCreate(t, &root.ID, "docs")
		assert.Equal(t, "docs", a.Name)
		assert.Equal(t, "docs (1)", b.Name)
		assert.Equal(t, "docs (2)", c.Name)
	})

	t.Run("same name under different parents is fine", func(t *testing.T) {
		e := newEnv(t)
		p1 := e.mustCreate(t, nil, "a")
		p2 := e.mustCreate(t, nil, "b")
		c1 := e.mustCreate(t, &p1.ID, "docs")
		c2 := e.mustCreate(t, &p2.ID, "docs")
		assert.Equal(t, "docs", c1.Name)
		assert.Equal(t, "docs", c2.Name)
	})

	t.Run("depth limit", func(t *testing.T) {
		e := newEnv(t)
		parent := e.mustCreate(t, nil, "level-1")
		for i := 2; i <= folder.MaxDepth; i++ {
			parent = e.mustCreate(t, &parent.ID, fmt.Sprintf("level-%d", i))
		}
		_, err := e.svc.Create(ctx, e.owner, e.wsID, &parent.ID, "too-deep")
		assert.ErrorIs(t, err, apperr.ErrDepthLimitExceeded)
	})

	t.Run("root creation is owner-only", func(t *testing.T) {
		e := newEnv(t)
		stranger := uuid.New()
		_, err := e.svc.Create(ctx, permission.Actor{UserID: &stranger, Email: "x@example.com"}, e.wsID, nil, "inbox")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("records creator attribution", func(t *testing.T) {
		e := newEnv(t)
		root := e.mustCreate(t, nil, "inbox")
		f := e.mustCreate(t, &root.ID, "docs")
		require.NotNil(t, f.CreatedByEmail)
		assert.Equal(t, "owner@example.com", *f.CreatedByEmail)
	})
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot move into own subtree", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		c := e.mustCreate(t, &b.ID, "c")

		_, err := e.svc.Move(ctx, e.owner, a.ID, &c.ID)
		assert.ErrorIs(t, err, apperr.ErrCircularReference)

		_, err = e.svc.Move(ctx, e.owner, a.ID, &a.ID)
		assert.ErrorIs(t, err, apperr.ErrCircularReference)
	})

	t.Run("move to current parent is a no-op", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		got, err := e.svc.Move(ctx, e.owner, b.ID, &a.ID)
		assert.NoError(t, err)
		assert.Equal(t, "b", got.Name)
	})

	t.Run("subtree height counts against the limit", func(t *testing.T) {
		e := newEnv(t)
		// Chain of depth MaxDepth-1, then a two-level subtree to move under it.
		parent := e.mustCreate(t, nil, "level-1")
		for i := 2; i < folder.MaxDepth; i++ {
			parent = e.mustCreate(t, &parent.ID, fmt.Sprintf("level-%d", i))
		}
		top := e.mustCreate(t, nil, "top")
		e.mustCreate(t, &top.ID, "leaf")

		_, err := e.svc.Move(ctx, e.owner, top.ID, &parent.ID)
		assert.ErrorIs(t, err, apperr.ErrDepthLimitExceeded)
	})

	t.Run("name conflict at destination is suffixed", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		e.mustCreate(t, &a.ID, "docs")
		loose := e.mustCreate(t, nil, "docs")

		got, err := e.svc.Move(ctx, e.owner, loose.ID, &a.ID)
		assert.NoError(t, err)
		assert.Equal(t, "docs (1)", got.Name)
	})

	t.Run("move to workspace root", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		got, err := e.svc.Move(ctx, e.owner, b.ID, nil)
		assert.NoError(t, err)
		assert.Nil(t, got.ParentFolderID)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	addFile := func(e *env, folderID uuid.UUID, path string, size int64) {
		e.files.files = append(e.files.files, &fileInfo.File{
			ID:          uuid.New(),
			WorkspaceID: e.wsID,
			FolderID:    &folderID,
			StoragePath: path,
			SizeBytes:   size,
		})
	}

	t.Run("cascade removes subtree and frees bytes", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		addFile(e, a.ID, "k1", 100)
		addFile(e, b.ID, "k2", 200)

		report, err := e.svc.Delete(ctx, e.owner, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, report.DeletedFolders)
		assert.Equal(t, 2, report.DeletedFiles)
		assert.Equal(t, int64(300), report.FreedBytes)
		assert.Empty(t, report.Failed)
		assert.Len(t, e.storage.deleted, 2)

		require.Len(t, e.folders.cascades, 1)
		assert.Equal(t, int64(300), e.folders.cascades[0].FreedBytes)
	})

	t.Run("links in the subtree are deactivated", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		linkID := uuid.New()
		e.folders.folders[b.ID].LinkID = &linkID

		_, err := e.svc.Delete(ctx, e.owner, a.ID)
		require.NoError(t, err)
		require.Len(t, e.folders.cascades, 1)
		assert.Equal(t, []uuid.UUID{linkID}, e.folders.cascades[0].LinkIDs)
	})

	t.Run("link on a surviving folder stays active", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		c := e.mustCreate(t, &a.ID, "c")
		stuckLink, goneLink := uuid.New(), uuid.New()
		e.folders.folders[b.ID].LinkID = &stuckLink
		e.folders.folders[c.ID].LinkID = &goneLink
		addFile(e, b.ID, "stuck", 100)
		e.storage.failing["stuck"] = true

		report, err := e.svc.Delete(ctx, e.owner, a.ID)
		require.NoError(t, err)
		require.Len(t, report.Failed, 1)

		// b survives with its blob, so its link must keep working.
		require.Len(t, e.folders.cascades, 1)
		assert.Equal(t, []uuid.UUID{goneLink}, e.folders.cascades[0].LinkIDs)
	})

	t.Run("storage failure keeps the row and its ancestors", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, &a.ID, "b")
		c := e.mustCreate(t, &a.ID, "c")
		addFile(e, b.ID, "stuck", 100)
		addFile(e, c.ID, "fine", 50)
		e.storage.failing["stuck"] = true

		report, err := e.svc.Delete(ctx, e.owner, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, report.DeletedFiles)
		assert.Equal(t, int64(50), report.FreedBytes)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "stuck", report.Failed[0].StoragePath)

		// c is gone, b and its parent a both survive for the retry.
		assert.Contains(t, e.folders.folders, a.ID)
		assert.Contains(t, e.folders.folders, b.ID)
		assert.NotContains(t, e.folders.folders, c.ID)
	})

	t.Run("unknown folder", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.svc.Delete(ctx, e.owner, uuid.New())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()

	t.Run("rename to own name keeps it", func(t *testing.T) {
		e := newEnv(t)
		a := e.mustCreate(t, nil, "a")
		got, err := e.svc.Rename(ctx, e.owner, a.ID, "a")
		assert.NoError(t, err)
		assert.Equal(t, "a", got.Name)
	})

	t.Run("rename onto sibling gets suffixed", func(t *testing.T) {
		e := newEnv(t)
		e.mustCreate(t, nil, "a")
		b := e.mustCreate(t, nil, "b")
		got, err := e.svc.Rename(ctx, e.owner, b.ID, "a")
		assert.NoError(t, err)
		assert.Equal(t, "a (1)", got.Name)
	})
}
