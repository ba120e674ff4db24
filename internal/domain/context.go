package domain

import (
	"context"
	"fmt"
)

type ctxKey int

const ctxUserInfo ctxKey = iota

// SystemUsername is the username that is used for unattributed system mutations
// (startup tasks, scheduled pipeline runs). Such mutations carry no principal id,
// so the audit trail records them with changed_by = NULL.
const SystemUsername = "_SYSTEM_"

// ContextUserInfo holds the acting principal for one unit of work.
// It is stored in the request context by the authentication middleware and
// read by the persistence layer to attribute mutations.
type ContextUserInfo struct {
	Id       UserId
	Username string
	IsAdmin  bool
}

func (u *ContextUserInfo) String() string {
	return fmt.Sprintf("%d|%s|%t", u.Id, u.Username, u.IsAdmin)
}

// Anonymous returns true if no authenticated principal is associated with the info.
func (u *ContextUserInfo) Anonymous() bool {
	return u == nil || u.Id == 0
}

// UserIdRef returns a nullable reference to the principal id, nil for anonymous principals.
func (u *ContextUserInfo) UserIdRef() *UserId {
	if u.Anonymous() {
		return nil
	}
	id := u.Id
	return &id
}

func DefaultContextUserInfo() *ContextUserInfo {
	return &ContextUserInfo{}
}

// SystemContextUserInfo returns the principal for internal system tasks.
// It has admin rights but no user id, so mutations stay unattributed.
func SystemContextUserInfo() *ContextUserInfo {
	return &ContextUserInfo{
		Id:       0,
		Username: SystemUsername,
		IsAdmin:  true,
	}
}

// SetUserInfo stores the given principal in a derived context.
// The returned context is scoped to the current unit of work; the parent
// context acts as the restore token, so concurrent units of work can never
// observe each other's principal.
func SetUserInfo(ctx context.Context, info *ContextUserInfo) context.Context {
	return context.WithValue(ctx, ctxUserInfo, info)
}

// GetUserInfo returns the principal stored in the context.
// If no principal is set, an anonymous principal is returned.
func GetUserInfo(ctx context.Context) *ContextUserInfo {
	if info, ok := ctx.Value(ctxUserInfo).(*ContextUserInfo); ok && info != nil {
		return info
	}

	return DefaultContextUserInfo()
}

// ValidateAdminAccessRights returns ErrNoPermission if the context principal has no admin rights.
func ValidateAdminAccessRights(ctx context.Context) error {
	if GetUserInfo(ctx).IsAdmin {
		return nil
	}

	return fmt.Errorf("admin rights required: %w", ErrNoPermission)
}

// ValidateUserAccessRights returns ErrNoPermission if the context principal is
// neither an admin nor the user with the given id.
func ValidateUserAccessRights(ctx context.Context, id UserId) error {
	info := GetUserInfo(ctx)

	if info.IsAdmin {
		return nil
	}

	if info.Id == id {
		return nil
	}

	return fmt.Errorf("user %d has no access to user %d: %w", info.Id, id, ErrNoPermission)
}
