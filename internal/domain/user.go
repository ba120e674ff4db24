package domain

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type UserId uint64

// User represents a trader account.
type User struct {
	Id UserId `gorm:"primaryKey;autoIncrement;column:id"`

	Username string        `gorm:"uniqueIndex;column:username"`
	Email    string        `gorm:"uniqueIndex;column:email"`
	Password PrivateString `gorm:"column:password"`
	IsAdmin  bool          `gorm:"column:is_admin"`
	Notes    string        `gorm:"column:notes"`

	BaseModel
	SoftDelete
}

func (u *User) TableName() string {
	return "users"
}

// CheckPassword compares the given plaintext password against the stored hash.
func (u *User) CheckPassword(password string) error {
	if u.Deleted() {
		return fmt.Errorf("user is deleted")
	}

	if u.Password == "" {
		return fmt.Errorf("empty password stored")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return fmt.Errorf("wrong password: %w", err)
	}

	return nil
}

// HashPassword replaces the currently set plaintext password with its bcrypt hash.
// If no password is set, the call is a no-op.
func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.Password = PrivateString(hash)

	return nil
}

// EditAllowed returns an error if the context principal must not modify this user.
func (u *User) EditAllowed(ctx context.Context) error {
	return ValidateUserAccessRights(ctx, u.Id)
}

// DeleteAllowed returns an error if the context principal must not delete this user.
// Users can never delete themselves, that always requires another admin.
func (u *User) DeleteAllowed(ctx context.Context) error {
	if err := ValidateAdminAccessRights(ctx); err != nil {
		return err
	}

	if GetUserInfo(ctx).Id == u.Id {
		return fmt.Errorf("self-deletion is not allowed: %w", ErrInvalidData)
	}

	return nil
}
