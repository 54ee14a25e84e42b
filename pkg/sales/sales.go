// Package sales defines sale records and the payloads exchanged with the
// upstream service when a sale is placed.
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/users"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Sale is the local record of a sale accepted upstream. Its ID is the one
// assigned by the upstream service.
type Sale struct {
	ID       int64           `json:"id" yaml:"id" gorm:"primaryKey;autoIncrement:false"`
	SaleDate time.Time       `json:"fechaVenta" yaml:"fechaVenta" gorm:"not null"`
	Profit   decimal.Decimal `json:"ganancia" yaml:"ganancia" gorm:"type:decimal(21,2);not null"`
	DeviceID *int64          `json:"idDispositivo,omitempty" yaml:"idDispositivo,omitempty"`
	UserID   *int64          `json:"-" yaml:"-" gorm:"index"`
	User     *users.Ref      `json:"user,omitempty" yaml:"user,omitempty" gorm:"-"`
}

// TableName returns the table name for Sale.
func (Sale) TableName() string { return "sales" }

// PricedItem is a chosen customization option or add-on with the price
// charged for it.
type PricedItem struct {
	ID    int64           `json:"id"`
	Price decimal.Decimal `json:"precio"`
}

// Request is a sale to be placed. ID must be empty: the upstream assigns it.
type Request struct {
	ID             *int64          `json:"id,omitempty"`
	DeviceID       int64           `json:"idDispositivo"`
	Customizations []PricedItem    `json:"personalizaciones"`
	AddOns         []PricedItem    `json:"adicionales"`
	FinalPrice     decimal.Decimal `json:"precioFinal"`
	SaleDate       time.Time       `json:"fechaVenta"`
	User           *users.Ref      `json:"user,omitempty"`
}

// Validate checks a request before anything is sent upstream.
func (r Request) Validate() error {
	switch {
	case r.ID != nil:
		return errors.NewValidationError("id", *r.ID, "a new sale cannot already have an ID")
	case r.DeviceID <= 0:
		return errors.NewValidationError("idDispositivo", r.DeviceID, "is required")
	case r.FinalPrice.IsNegative():
		return errors.NewValidationError("precioFinal", r.FinalPrice.String(), "must not be negative")
	case r.User == nil || r.User.ID <= 0:
		return errors.NewValidationError("user", nil, "user id is required")
	}
	return nil
}

// Receipt is the upstream acknowledgement of a placed sale.
type Receipt struct {
	SaleID      int64           `json:"idVenta"`
	DeviceID    int64           `json:"idDispositivo"`
	Code        string          `json:"codigo,omitempty"`
	Name        string          `json:"nombre,omitempty"`
	Description string          `json:"descripcion,omitempty"`
	BasePrice   decimal.Decimal `json:"precioBase"`
	Currency    string          `json:"moneda,omitempty"`
	FinalPrice  decimal.Decimal `json:"precioFinal"`
	SaleDate    *time.Time      `json:"fechaVenta,omitempty"`
}
