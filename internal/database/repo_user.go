package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cybercase/internal/constants"
	"cybercase/internal/security"

	"gorm.io/gorm"
)

type UserRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{db: DB, now: utcNow}
}

type NewUser struct {
	Username string
	Password string
	FullName string
	Role     string
	// CreatedBy is recorded in the activity log.
	CreatedBy string
}

// Create adds an active user with a hashed password. A taken username, active
// or not, yields ErrDuplicateUsername.
func (r *UserRepo) Create(ctx context.Context, in NewUser) (*User, error) {
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := r.now()
	user := &User{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&User{}).Where("username = ?", in.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateUsername
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUsername
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return tx.Create(&ActivityLog{
			Username:  defaultString(in.CreatedBy, constants.SystemUser),
			Action:    constants.ActionCreateUser,
			Details:   fmt.Sprintf("Created user %s (%s)", user.Username, user.Role),
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByUsername is an exact, case-sensitive lookup among active users.
func (r *UserRepo) FindActiveByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Take(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActive returns active users ordered by id.
func (r *UserRepo) ListActive(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Count(&count).Error
	return count, err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).Model(&User{}).
		Where("username = ?", username).
		Update("last_login", r.now()).Error
}

// UpdatePassword stores a new hash and clears the forced-reset flag.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": false,
		"updated_at":           r.now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Deactivate marks a user inactive. Rows are never deleted, so the username stays taken.
func (r *UserRepo) Deactivate(ctx context.Context, username, by string) error {
	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&User{}).
			Where("username = ? AND is_active = ?", username, true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Create(&ActivityLog{
			Username:  defaultString(by, constants.SystemUser),
			Action:    constants.ActionDeactivateUser,
			Details:   "Deactivated user " + username,
			Timestamp: now,
		}).Error
	})
}
