package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestUser_CheckPassword(t *testing.T) {
	password := "password"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	user := &User{Password: PrivateString(hashedPassword)}
	assert.NoError(t, user.CheckPassword(password))
	assert.Error(t, user.CheckPassword("wrong_password"))

	user.Password = ""
	assert.Error(t, user.CheckPassword(password))
}

func TestUser_CheckPassword_deletedUser(t *testing.T) {
	password := "password"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	user := &User{Password: PrivateString(hashedPassword)}
	user.MarkDeleted(time.Now())

	assert.Error(t, user.CheckPassword(password))
}

func TestUser_HashPassword(t *testing.T) {
	user := &User{Password: "password"}
	assert.NoError(t, user.HashPassword())
	assert.NotEmpty(t, user.Password)
	assert.NotEqual(t, PrivateString("password"), user.Password)

	assert.NoError(t, user.CheckPassword("password"))

	user.Password = ""
	assert.NoError(t, user.HashPassword())
	assert.Empty(t, user.Password)
}

func TestUser_EditAllowed(t *testing.T) {
	user := &User{Id: 2}

	adminCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 1, IsAdmin: true})
	assert.NoError(t, user.EditAllowed(adminCtx))

	selfCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 2})
	assert.NoError(t, user.EditAllowed(selfCtx))

	otherCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 3})
	assert.ErrorIs(t, user.EditAllowed(otherCtx), ErrNoPermission)
}

func TestUser_DeleteAllowed(t *testing.T) {
	user := &User{Id: 2}

	adminCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 1, IsAdmin: true})
	assert.NoError(t, user.DeleteAllowed(adminCtx))

	selfAdminCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 2, IsAdmin: true})
	assert.ErrorIs(t, user.DeleteAllowed(selfAdminCtx), ErrInvalidData)

	userCtx := SetUserInfo(context.Background(), &ContextUserInfo{Id: 3})
	assert.ErrorIs(t, user.DeleteAllowed(userCtx), ErrNoPermission)
}
