package model

type Error struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
}

type SessionInfo struct {
	LoggedIn bool    `json:"LoggedIn"`
	IsAdmin  bool    `json:"IsAdmin"`
	UserId   *uint64 `json:"UserId,omitempty"`
	Username *string `json:"Username,omitempty"`
	Email    *string `json:"Email,omitempty"`
}
