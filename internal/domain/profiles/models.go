package profiles

import "time"

type Profile struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FullName        string     `json:"fullName"`
	Position        string     `json:"position"`
	Department      string     `json:"department"`
	AvatarURL       string     `json:"avatarUrl"`
	AllowPublicView bool       `json:"allowPublicView"`
	Role            string     `json:"role"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type SelfUpdate struct {
	FullName        *string `json:"fullName" validate:"omitempty,min=2,max=120"`
	Username        *string `json:"username" validate:"omitempty,min=3,max=40"`
	AvatarURL       *string `json:"avatarUrl" validate:"omitempty,url,max=500"`
	AllowPublicView *bool   `json:"allowPublicView"`
}

type CreateInput struct {
	Email      string `json:"email" validate:"required,email,max=200"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	FullName   string `json:"fullName" validate:"required,min=2,max=120"`
	Username   string `json:"username" validate:"omitempty,min=3,max=40"`
	Position   string `json:"position" validate:"omitempty,max=120"`
	Department string `json:"department" validate:"omitempty,max=120"`
	Role       string `json:"role" validate:"omitempty,oneof=user supervisor admin"`
}

type AdminUpdate struct {
	Email      *string `json:"email" validate:"omitempty,email,max=200"`
	FullName   *string `json:"fullName" validate:"omitempty,min=2,max=120"`
	Username   *string `json:"username" validate:"omitempty,min=3,max=40"`
	Position   *string `json:"position" validate:"omitempty,max=120"`
	Department *string `json:"department" validate:"omitempty,max=120"`
}

type Filter struct {
	Query      string
	Department string
	Limit      int
	Offset     int
}
