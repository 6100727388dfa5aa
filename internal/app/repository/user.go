package repository

import (
	"budget-backend/internal/app/ds"
)

func (r *Repository) GetUserByID(id uint) (*ds.User, error) {
	var user ds.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, translateError("get user", err)
	}
	return &user, nil
}

func (r *Repository) GetUserByLogin(login string) (*ds.User, error) {
	var user ds.User
	err := r.db.Where("login = ?", login).First(&user).Error
	if err != nil {
		return nil, translateError("get user", err)
	}
	return &user, nil
}

func (r *Repository) CreateUser(login, password, fullName, department string, isAdmin bool) (*ds.User, error) {
	user := ds.User{
		Login:      login,
		Password:   password,
		FullName:   fullName,
		Department: department,
		IsAdmin:    isAdmin,
	}

	err := r.db.Create(&user).Error
	if err != nil {
		return nil, translateError("create user", err)
	}

	return &user, nil
}
