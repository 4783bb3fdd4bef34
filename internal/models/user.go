// internal/models/user.go
package models

type User struct {
	BaseModel
	UID      string   `json:"uid" gorm:"size:128;not null;uniqueIndex"`
	Name     string   `json:"name" gorm:"size:255"`
	Email    string   `json:"email" gorm:"size:255;not null;uniqueIndex"`
	UserType UserType `json:"userType" gorm:"type:varchar(20);not null;default:'customer';index"`
	Verified bool     `json:"verified" gorm:"not null;default:false"`
	PhotoURL string   `json:"photoURL,omitempty" gorm:"size:1024"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == UserTypeAdmin
}

func (u *User) IsSeller() bool {
	return u != nil && u.UserType == UserTypeSeller
}
