package permissionService

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/model/folder"
	"fileinbox-service/internal/model/link"
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/internal/model/workspace"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LinkStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error)
}

type PermissionStore interface {
	Get(ctx context.Context, linkID uuid.UUID, email string) (*permission.Permission, error)
	List(ctx context.Context, linkID uuid.UUID) ([]*permission.Permission, error)
	Add(ctx context.Context, p *permission.Permission) error
	EnsureUploader(ctx context.Context, linkID uuid.UUID, email string) error
	Remove(ctx context.Context, linkID uuid.UUID, email string) error
	SetRole(ctx context.Context, linkID uuid.UUID, email string, role permission.Role) error
}

type FolderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*folder.Folder, error)
}

type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*workspace.Workspace, error)
}

type OTPStore interface {
	SaveCode(ctx context.Context, linkID uuid.UUID, email, hashedCode string, ttl time.Duration) error
	GetCode(ctx context.Context, linkID uuid.UUID, email string) (string, error)
	DeleteCode(ctx context.Context, linkID uuid.UUID, email string) error
}

// PermissionService is the three-role engine. Owner is never a stored row,
// it is derived from link (or workspace) ownership. A pending editor
// promotion is represented solely by its OTP entry: when the entry's TTL
// runs out the candidate is an uploader again, no sweep required.
type PermissionService struct {
	links        LinkStore
	perms        PermissionStore
	folders      FolderStore
	workspaces   WorkspaceStore
	otp          OTPStore
	promotionTTL time.Duration
	generateCode func() (string, error)
}

func New(links LinkStore, perms PermissionStore, folders FolderStore, workspaces WorkspaceStore, otp OTPStore, promotionTTL time.Duration) *PermissionService {
	return &PermissionService{
		links:        links,
		perms:        perms,
		folders:      folders,
		workspaces:   workspaces,
		otp:          otp,
		promotionTTL: promotionTTL,
		generateCode: generateCode,
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GoverningLink walks from f up to the root and returns the first bound
// link, active or not. A folder with no linked ancestor is personal.
func (s *PermissionService) GoverningLink(ctx context.Context, f *folder.Folder) (*link.Link, error) {
	current := f
	for i := 0; i < folder.MaxDepth; i++ {
		if current.LinkID != nil {
			l, err := s.links.GetByID(ctx, *current.LinkID)
			if err != nil {
				return nil, fmt.Errorf("failed to get link: %w", err)
			}
			return l, nil
		}
		if current.ParentFolderID == nil {
			return nil, nil
		}
		parent, err := s.folders.GetByID(ctx, *current.ParentFolderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil {
			return nil, nil
		}
		current = parent
	}
	return nil, fmt.Errorf("ancestor chain of folder %s exceeds max depth", f.ID)
}

// GoverningLinkOf resolves the governing link of a folder by id. Callers
// that only hold the id use this to pin an upload target to one share.
func (s *PermissionService) GoverningLinkOf(ctx context.Context, folderID uuid.UUID) (*link.Link, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	return s.GoverningLink(ctx, f)
}

// AuthorizeMutation is the capability check every mutating folder/file
// operation runs before touching anything. objectCreator is the email the
// object is attributed to, used for uploader self-service rights.
func (s *PermissionService) AuthorizeMutation(ctx context.Context, actor permission.Actor, f *folder.Folder, action permission.Action, objectCreator *string) error {
	ws, err := s.workspaces.GetByID(ctx, f.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return fmt.Errorf("workspace %s: %w", f.WorkspaceID, apperr.ErrNotFound)
	}
	if actor.UserID != nil && *actor.UserID == ws.OwnerID {
		return nil
	}

	l, err := s.GoverningLink(ctx, f)
	if err != nil {
		return err
	}
	if l == nil || !l.IsActive {
		// Personal folder, owner-only territory.
		return apperr.ErrUnauthorized
	}
	if actor.Email == "" {
		return apperr.ErrUnauthorized
	}
	// A claimed email is enough to add content, never to change it. Rename,
	// move and delete need the email verified by a session.
	if actor.UserID == nil && action != permission.ActionCreate && action != permission.ActionRead {
		return apperr.ErrUnauthorized
	}

	p, err := s.perms.Get(ctx, l.ID, actor.Email)
	if err != nil {
		return fmt.Errorf("failed to get permission: %w", err)
	}
	if p != nil && p.Removed() {
		if action == permission.ActionCreate {
			return fmt.Errorf("%s was removed from link %s: %w", actor.Email, l.ID, apperr.ErrNotAuthorized)
		}
		return apperr.ErrUnauthorized
	}

	role := permission.RoleAnonymous
	if p != nil {
		role = p.Role
	}

	switch role {
	case permission.RoleEditor:
		return nil
	case permission.RoleUploader:
		if action == permission.ActionCreate || action == permission.ActionRead {
			return nil
		}
		// Uploaders manage only what they created themselves.
		if objectCreator != nil && *objectCreator == actor.Email {
			return nil
		}
		return apperr.ErrUnauthorized
	default:
		if action == permission.ActionCreate {
			if l.Type == link.TypePublic {
				return nil
			}
			return fmt.Errorf("%s is not on the allow-list of link %s: %w", actor.Email, l.ID, apperr.ErrNotAuthorized)
		}
		return apperr.ErrUnauthorized
	}
}

// AuthorizeUpload gates uploads through a link: active link, claimed email,
// allow-list on dedicated links, removal markers on both types.
func (s *PermissionService) AuthorizeUpload(ctx context.Context, actor permission.Actor, l *link.Link) error {
	if l == nil || !l.IsActive {
		return fmt.Errorf("link is not active: %w", apperr.ErrNotFound)
	}
	if actor.UserID != nil && *actor.UserID == l.OwnerID {
		return nil
	}
	if actor.Email == "" {
		return fmt.Errorf("upload requires an email: %w", apperr.ErrNotAuthorized)
	}

	p, err := s.perms.Get(ctx, l.ID, actor.Email)
	if err != nil {
		return fmt.Errorf("failed to get permission: %w", err)
	}
	if p != nil && p.Removed() {
		return fmt.Errorf("%s was removed from link %s: %w", actor.Email, l.ID, apperr.ErrNotAuthorized)
	}
	if l.Type == link.TypeDedicated && p == nil {
		return fmt.Errorf("%s is not on the allow-list of link %s: %w", actor.Email, l.ID, apperr.ErrNotAuthorized)
	}
	return nil
}

// EnsureUploader is the idempotent auto-append side effect of a first
// upload through a public link.
func (s *PermissionService) EnsureUploader(ctx context.Context, linkID uuid.UUID, email string) error {
	return s.perms.EnsureUploader(ctx, linkID, email)
}

func (s *PermissionService) requireLinkOwner(ctx context.Context, actor permission.Actor, linkID uuid.UUID) (*link.Link, error) {
	l, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("link %s: %w", linkID, apperr.ErrNotFound)
	}
	if actor.UserID == nil || *actor.UserID != l.OwnerID {
		return nil, apperr.ErrUnauthorized
	}
	return l, nil
}

func (s *PermissionService) AddPermission(ctx context.Context, actor permission.Actor, linkID uuid.UUID, email string) error {
	if _, err := s.requireLinkOwner(ctx, actor, linkID); err != nil {
		return err
	}
	return s.perms.Add(ctx, &permission.Permission{
		LinkID:    linkID,
		Email:     email,
		Role:      permission.RoleUploader,
		CreatedAt: time.Now(),
	})
}

// RemovePermission blocks future uploads from the email. Files already
// attributed to it stay listed and attributed.
func (s *PermissionService) RemovePermission(ctx context.Context, actor permission.Actor, linkID uuid.UUID, email string) error {
	if _, err := s.requireLinkOwner(ctx, actor, linkID); err != nil {
		return err
	}
	return s.perms.Remove(ctx, linkID, email)
}

func (s *PermissionService) ListPermissions(ctx context.Context, actor permission.Actor, linkID uuid.UUID) ([]*permission.Permission, error) {
	if _, err := s.requireLinkOwner(ctx, actor, linkID); err != nil {
		return nil, err
	}
	return s.perms.List(ctx, linkID)
}

// InitiatePromotion starts uploader -> pending_editor. The returned code is
// handed to the notification collaborator for out-of-band delivery; only
// its bcrypt hash is stored, under the promotion TTL.
func (s *PermissionService) InitiatePromotion(ctx context.Context, actor permission.Actor, linkID uuid.UUID, email string) (string, error) {
	if _, err := s.requireLinkOwner(ctx, actor, linkID); err != nil {
		return "", err
	}
	p, err := s.perms.Get(ctx, linkID, email)
	if err != nil {
		return "", fmt.Errorf("failed to get permission: %w", err)
	}
	if p == nil || p.Removed() {
		return "", fmt.Errorf("no uploader %s on link %s: %w", email, linkID, apperr.ErrNotFound)
	}
	if p.Role == permission.RoleEditor {
		return "", fmt.Errorf("%s is already an editor on link %s", email, linkID)
	}

	code, err := s.generateCode()
	if err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	if err := s.otp.SaveCode(ctx, linkID, email, string(hashed), s.promotionTTL); err != nil {
		return "", fmt.Errorf("failed to save promotion code: %w", err)
	}
	return code, nil
}

// VerifyPromotion completes pending_editor -> editor. An absent entry means
// the promotion expired (or never started) and the candidate is still an
// uploader; a wrong code cancels the pending promotion.
func (s *PermissionService) VerifyPromotion(ctx context.Context, linkID uuid.UUID, email, code string) error {
	hashed, err := s.otp.GetCode(ctx, linkID, email)
	if err != nil {
		return fmt.Errorf("failed to get promotion code: %w", err)
	}
	if hashed == "" {
		return fmt.Errorf("no pending promotion for %s on link %s: %w", email, linkID, apperr.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code)); err != nil {
		_ = s.otp.DeleteCode(ctx, linkID, email)
		return fmt.Errorf("wrong promotion code: %w", apperr.ErrNotAuthorized)
	}
	if err := s.perms.SetRole(ctx, linkID, email, permission.RoleEditor); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return s.otp.DeleteCode(ctx, linkID, email)
}

// PendingPromotion reports whether a promotion is awaiting verification.
func (s *PermissionService) PendingPromotion(ctx context.Context, linkID uuid.UUID, email string) (bool, error) {
	hashed, err := s.otp.GetCode(ctx, linkID, email)
	if err != nil {
		return false, err
	}
	return hashed != "", nil
}
