package domain

import "time"

const RoleCustomer = "customer"

type Role struct {
	ID   int64
	Name string
}

type User struct {
	ID           int64
	Role         Role
	Nama         string
	Email        string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
