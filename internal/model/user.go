package model

import "time"

// User 账号，password 为 bcrypt 哈希，不参与序列化
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Avatar    string    `json:"avatar" gorm:"type:varchar(255)"`
	Date      time.Time `json:"date" gorm:"column:date;not null"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

// Profile is the public part of a user that gets copied onto posts and comments.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
