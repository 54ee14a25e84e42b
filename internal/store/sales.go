package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

const saleResource = "sale"

// Sales persists sale records.
type Sales struct {
	db *gorm.DB
}

// Create stores a sale under its upstream-assigned id.
func (s *Sales) Create(ctx context.Context, sale *sales.Sale) error {
	if err := s.db.WithContext(ctx).Create(sale).Error; err != nil {
		return translate("create", saleResource, sale.ID, err)
	}
	return s.attachUsers(ctx, []*sales.Sale{sale})
}

// Get loads one sale.
func (s *Sales) Get(ctx context.Context, id int64) (*sales.Sale, error) {
	var sale sales.Sale
	if err := s.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, translate("get", saleResource, id, err)
	}
	if err := s.attachUsers(ctx, []*sales.Sale{&sale}); err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns one page of sales, newest first, and the total count.
func (s *Sales) List(ctx context.Context, page Page) ([]sales.Sale, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&sales.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count", saleResource, 0, err)
	}
	items := []sales.Sale{}
	if err := page.apply(s.db.WithContext(ctx)).Order("sale_date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, translate("list", saleResource, 0, err)
	}
	return items, total, s.attachUsers(ctx, pointers(items))
}

// ListByUser returns every sale of one user, newest first.
func (s *Sales) ListByUser(ctx context.Context, userID int64) ([]sales.Sale, error) {
	items := []sales.Sale{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sale_date DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, translate("list", saleResource, 0, err)
	}
	return items, s.attachUsers(ctx, pointers(items))
}

// Update overwrites an existing sale.
func (s *Sales) Update(ctx context.Context, sale *sales.Sale) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[sales.Sale](tx, saleResource, sale.ID); err != nil {
			return err
		}
		return translate("update", saleResource, sale.ID, tx.Save(sale).Error)
	})
	if err != nil {
		return err
	}
	return s.attachUsers(ctx, []*sales.Sale{sale})
}

// Delete removes a sale.
func (s *Sales) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&sales.Sale{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete", saleResource, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete", saleResource, id, gorm.ErrRecordNotFound)
	}
	return nil
}

// attachUsers fills the user reference of each sale from its user id.
func (s *Sales) attachUsers(ctx context.Context, items []*sales.Sale) error {
	ids := make([]int64, 0, len(items))
	for _, sale := range items {
		sale.User = nil
		if sale.UserID != nil {
			ids = append(ids, *sale.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var owners []users.User
	if err := s.db.WithContext(ctx).Select("id", "login").Where("id IN ?", ids).Find(&owners).Error; err != nil {
		return translate("list", "user", 0, err)
	}
	logins := make(map[int64]string, len(owners))
	for _, u := range owners {
		logins[u.ID] = u.Login
	}
	for _, sale := range items {
		if sale.UserID != nil {
			sale.User = &users.Ref{ID: *sale.UserID, Login: logins[*sale.UserID]}
		}
	}
	return nil
}

func pointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
