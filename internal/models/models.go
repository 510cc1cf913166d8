package models

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the persisted credential record. PasswordHash never leaves the process.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:100"  json:"username"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Role         string    `gorm:"not null;default:USER;size:32"  json:"role"`
	CreatedAt    time.Time `                                      json:"created_at"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null;index"            json:"name"`
	Description string  `                                 json:"description"`
	Price       float64 `gorm:"not null;default:0"        json:"price"`
	Stock       int     `gorm:"not null;default:0"        json:"stock"`
}

// Student backs the in-memory demo list and is never persisted.
type Student struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Marks int    `json:"marks"`
}
