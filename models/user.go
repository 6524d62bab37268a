package models

import "time"

// UserProfile is the signed-in user as shown by the storefront.
type UserProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// IdentityUser is the minimal user record an identity provider returns.
type IdentityUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is an authenticated session issued by an identity provider.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         IdentityUser `json:"user"`
}

// Profile is the persisted profile row for a user.
type Profile struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	AvatarURL    string    `gorm:"size:512"`
	PasswordHash string    `gorm:"size:255"`
	Provider     string    `gorm:"type:varchar(20);default:'email'"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
