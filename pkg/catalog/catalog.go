// Package catalog defines the device catalog value types shared by the
// upstream client, the local store and the HTTP API.
//
// A Device is authoritative upstream: the local copy is kept equal to the
// upstream version by the reconciler, and Equal is the change detector.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storefront/pkg/errors"
)

func init() {
	// Prices travel as JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Device is a sellable catalog product.
type Device struct {
	ID             int64           `json:"id" yaml:"id" gorm:"primaryKey"`
	Code           string          `json:"codigo" yaml:"codigo" gorm:"size:64;not null"`
	Name           string          `json:"nombre" yaml:"nombre" gorm:"size:255;not null"`
	Description    string          `json:"descripcion" yaml:"descripcion" gorm:"size:1024"`
	BasePrice      decimal.Decimal `json:"precioBase" yaml:"precioBase" gorm:"type:decimal(21,2);not null"`
	Currency       string          `json:"moneda" yaml:"moneda" gorm:"size:8;not null"`
	Features       []Feature       `json:"caracteristicas" yaml:"caracteristicas" gorm:"foreignKey:DeviceID"`
	Customizations []Customization `json:"personalizaciones" yaml:"personalizaciones" gorm:"foreignKey:DeviceID"`
	AddOns         []AddOn         `json:"adicionales" yaml:"adicionales" gorm:"many2many:device_add_ons;joinForeignKey:DeviceID;joinReferences:AddOnID"`
}

// TableName returns the table name for Device.
func (Device) TableName() string { return "devices" }

// Feature is a descriptive characteristic of a device.
type Feature struct {
	ID          int64  `json:"id" yaml:"id" gorm:"primaryKey"`
	Name        string `json:"nombre" yaml:"nombre" gorm:"size:255;not null"`
	Description string `json:"descripcion" yaml:"descripcion" gorm:"size:1024"`
	DeviceID    *int64 `json:"dispositivoId,omitempty" yaml:"dispositivoId,omitempty" gorm:"index"`
}

// TableName returns the table name for Feature.
func (Feature) TableName() string { return "features" }

// Customization is a configurable aspect of a device with priced options.
type Customization struct {
	ID          int64    `json:"id" yaml:"id" gorm:"primaryKey"`
	Name        string   `json:"nombre" yaml:"nombre" gorm:"size:255;not null"`
	Description string   `json:"descripcion" yaml:"descripcion" gorm:"size:1024"`
	Options     []Option `json:"opciones" yaml:"opciones" gorm:"foreignKey:CustomizationID"`
	DeviceID    *int64   `json:"dispositivoId,omitempty" yaml:"dispositivoId,omitempty" gorm:"index"`
}

// TableName returns the table name for Customization.
func (Customization) TableName() string { return "customizations" }

// Option is one choice within a customization.
type Option struct {
	ID              int64           `json:"id" yaml:"id" gorm:"primaryKey"`
	Code            string          `json:"codigo" yaml:"codigo" gorm:"size:64;not null"`
	Name            string          `json:"nombre" yaml:"nombre" gorm:"size:255;not null"`
	Description     string          `json:"descripcion" yaml:"descripcion" gorm:"size:1024"`
	AdditionalPrice decimal.Decimal `json:"precioAdicional" yaml:"precioAdicional" gorm:"type:decimal(21,2);not null"`
	CustomizationID *int64          `json:"personalizacionId,omitempty" yaml:"personalizacionId,omitempty" gorm:"index"`
}

// TableName returns the table name for Option.
func (Option) TableName() string { return "options" }

// AddOn is an extra that can be bundled with devices. FreePrice, when set,
// is the sale total above which the add-on is free.
type AddOn struct {
	ID          int64               `json:"id" yaml:"id" gorm:"primaryKey"`
	Name        string              `json:"nombre" yaml:"nombre" gorm:"size:255;not null"`
	Description string              `json:"descripcion" yaml:"descripcion" gorm:"size:1024"`
	Price       decimal.Decimal     `json:"precio" yaml:"precio" gorm:"type:decimal(21,2);not null"`
	FreePrice   decimal.NullDecimal `json:"precioGratis" yaml:"precioGratis" gorm:"type:decimal(21,2)"`
}

// TableName returns the table name for AddOn.
func (AddOn) TableName() string { return "add_ons" }

// Validate checks the fields a device must carry before it is stored.
func (d Device) Validate() error {
	switch {
	case d.ID <= 0:
		return errors.NewValidationError("id", d.ID, "device id is assigned upstream and must be positive")
	case strings.TrimSpace(d.Code) == "":
		return errors.NewValidationError("codigo", d.Code, "is required")
	case strings.TrimSpace(d.Name) == "":
		return errors.NewValidationError("nombre", d.Name, "is required")
	case d.BasePrice.IsNegative():
		return errors.NewValidationError("precioBase", d.BasePrice.String(), "must not be negative")
	case strings.TrimSpace(d.Currency) == "":
		return errors.NewValidationError("moneda", d.Currency, "is required")
	}
	return nil
}

// Validate checks a feature's required fields.
func (f Feature) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.NewValidationError("nombre", f.Name, "is required")
	}
	return nil
}

// Validate checks a customization's required fields.
func (c Customization) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewValidationError("nombre", c.Name, "is required")
	}
	return nil
}

// Validate checks an option's required fields.
func (o Option) Validate() error {
	switch {
	case strings.TrimSpace(o.Code) == "":
		return errors.NewValidationError("codigo", o.Code, "is required")
	case strings.TrimSpace(o.Name) == "":
		return errors.NewValidationError("nombre", o.Name, "is required")
	case o.AdditionalPrice.IsNegative():
		return errors.NewValidationError("precioAdicional", o.AdditionalPrice.String(), "must not be negative")
	}
	return nil
}

// Validate checks an add-on's required fields.
func (a AddOn) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return errors.NewValidationError("nombre", a.Name, "is required")
	case a.Price.IsNegative():
		return errors.NewValidationError("precio", a.Price.String(), "must not be negative")
	}
	return nil
}
