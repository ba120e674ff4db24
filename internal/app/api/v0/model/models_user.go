package model

import (
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type User struct {
	Id       uint64 `json:"Id"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
	IsAdmin  bool   `json:"IsAdmin"`
	Notes    string `json:"Notes"`

	Password string `json:"Password,omitempty"`

	Deleted   bool      `json:"Deleted"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
}

func NewUser(src *domain.User) *User {
	return &User{
		Id:        uint64(src.Id),
		Username:  src.Username,
		Email:     src.Email,
		IsAdmin:   src.IsAdmin,
		Notes:     src.Notes,
		Password:  "", // never expose the stored hash
		Deleted:   src.Deleted(),
		CreatedAt: src.CreatedAt,
		UpdatedAt: src.UpdatedAt,
	}
}

func NewUsers(src []domain.User) []User {
	results := make([]User, len(src))
	for i := range src {
		results[i] = *NewUser(&src[i])
	}

	return results
}

func NewDomainUser(src *User) *domain.User {
	return &domain.User{
		Id:       domain.UserId(src.Id),
		Username: src.Username,
		Email:    src.Email,
		Password: domain.PrivateString(src.Password),
		IsAdmin:  src.IsAdmin,
		Notes:    src.Notes,
	}
}
