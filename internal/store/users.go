package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/users"
)

const userResource = "user"

// Users persists accounts and their authorities.
type Users struct {
	db *gorm.DB
}

func (u *Users) query(ctx context.Context) *gorm.DB {
	return u.db.WithContext(ctx).Preload("Authorities")
}

// Create stores a new account with its authorities. Login and email must be
// unique.
func (u *Users) Create(ctx context.Context, user *users.User) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueUser(tx, 0, user.Login, user.Email); err != nil {
			return err
		}
		if err := tx.Omit("Authorities.*").Create(user).Error; err != nil {
			return translate("create", userResource, user.ID, err)
		}
		return nil
	})
}

// Get loads an account by id.
func (u *Users) Get(ctx context.Context, id int64) (*users.User, error) {
	return u.findOne(ctx, id, "id = ?", id)
}

// FindByLogin loads an account by login, case-insensitively.
func (u *Users) FindByLogin(ctx context.Context, login string) (*users.User, error) {
	return u.findOne(ctx, 0, "LOWER(login) = ?", strings.ToLower(login))
}

// FindByEmail loads an account by email, case-insensitively.
func (u *Users) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return u.findOne(ctx, 0, "LOWER(email) = ?", strings.ToLower(email))
}

// FindByActivationKey loads the account awaiting activation with key.
func (u *Users) FindByActivationKey(ctx context.Context, key string) (*users.User, error) {
	return u.findOne(ctx, 0, "activation_key = ?", key)
}

// FindByResetKey loads the account with a pending password reset key.
func (u *Users) FindByResetKey(ctx context.Context, key string) (*users.User, error) {
	return u.findOne(ctx, 0, "reset_key = ?", key)
}

func (u *Users) findOne(ctx context.Context, id int64, query string, args ...any) (*users.User, error) {
	var user users.User
	if err := u.query(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, translate("get", userResource, id, err)
	}
	return &user, nil
}

// List returns one page of accounts and the total count.
func (u *Users) List(ctx context.Context, page Page) ([]users.User, int64, error) {
	var total int64
	if err := u.db.WithContext(ctx).Model(&users.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count", userResource, 0, err)
	}
	items := []users.User{}
	if err := page.apply(u.query(ctx)).Order("id").Find(&items).Error; err != nil {
		return nil, 0, translate("list", userResource, 0, err)
	}
	return items, total, nil
}

// Update saves the account's own columns. Authorities are left as they are.
func (u *Users) Update(ctx context.Context, user *users.User) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[users.User](tx, userResource, user.ID); err != nil {
			return err
		}
		if err := uniqueUser(tx, user.ID, user.Login, user.Email); err != nil {
			return err
		}
		return translate("update", userResource, user.ID, tx.Omit(clause.Associations).Save(user).Error)
	})
}

// Count returns the number of accounts.
func (u *Users) Count(ctx context.Context) (int64, error) {
	var total int64
	err := u.db.WithContext(ctx).Model(&users.User{}).Count(&total).Error
	return total, translate("count", userResource, 0, err)
}

// uniqueUser fails when another account already uses login or email.
func uniqueUser(tx *gorm.DB, selfID int64, login, email string) error {
	check := func(field, column, value string) error {
		if value == "" {
			return nil
		}
		var other users.User
		err := tx.Select("id").Where("LOWER("+column+") = ? AND id <> ?", strings.ToLower(value), selfID).First(&other).Error
		switch {
		case err == nil:
			return pkgerrors.NewAlreadyExistsError(userResource, field, value)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		default:
			return translate("get", userResource, 0, err)
		}
	}
	if err := check("login", "login", login); err != nil {
		return err
	}
	return check("email", "email", email)
}
