package store

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentstation/storefront/pkg/catalog"
	pkgerrors "github.com/agentstation/storefront/pkg/errors"
)

const deviceResource = "device"

// deviceAddOn is a row of the device/add-on join table.
type deviceAddOn struct {
	DeviceID int64 `gorm:"primaryKey"`
	AddOnID  int64 `gorm:"primaryKey"`
}

func (deviceAddOn) TableName() string { return "device_add_ons" }

// Devices persists catalog devices together with their features,
// customizations, options and add-on links.
type Devices struct {
	db *gorm.DB
}

func (d *Devices) query(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).
		Preload("Features", orderByID).
		Preload("Customizations", orderByID).
		Preload("Customizations.Options", orderByID).
		Preload("AddOns", orderByID)
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// ListAll returns every stored device with its nested collections.
func (d *Devices) ListAll(ctx context.Context) ([]catalog.Device, error) {
	devices := []catalog.Device{}
	if err := d.query(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, translate("list", deviceResource, 0, err)
	}
	return devices, nil
}

// List returns one page of devices and the total count.
func (d *Devices) List(ctx context.Context, page Page) ([]catalog.Device, int64, error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&catalog.Device{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count", deviceResource, 0, err)
	}
	devices := []catalog.Device{}
	if err := page.apply(d.query(ctx)).Order("id").Find(&devices).Error; err != nil {
		return nil, 0, translate("list", deviceResource, 0, err)
	}
	return devices, total, nil
}

// Get loads one device with its nested collections.
func (d *Devices) Get(ctx context.Context, id int64) (*catalog.Device, error) {
	var device catalog.Device
	if err := d.query(ctx).First(&device, "id = ?", id).Error; err != nil {
		return nil, translate("get", deviceResource, id, err)
	}
	return &device, nil
}

// Create stores a new device. It fails with an AlreadyExistsError when the
// id is taken.
func (d *Devices) Create(ctx context.Context, device catalog.Device) (catalog.Device, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&device).Error; err != nil {
			return translate("create", deviceResource, device.ID, err)
		}
		return replaceChildren(tx, &device)
	})
	return device, err
}

// Update overwrites an existing device and its nested collections.
func (d *Devices) Update(ctx context.Context, device catalog.Device) (catalog.Device, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[catalog.Device](tx, deviceResource, device.ID); err != nil {
			return err
		}
		return writeDevice(tx, &device)
	})
	return device, err
}

// Upsert inserts the device if its id is unknown and overwrites it
// otherwise. Each call is its own transaction. The id must be positive:
// device ids are assigned upstream, never by the database.
func (d *Devices) Upsert(ctx context.Context, device catalog.Device) (catalog.Device, error) {
	if device.ID <= 0 {
		return device, pkgerrors.NewValidationError("id", device.ID, "device id must be positive")
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeDevice(tx, &device)
	})
	return device, err
}

// Delete removes a device, its features and customizations, and its add-on
// links. Add-ons themselves are shared and stay.
func (d *Devices) Delete(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[catalog.Device](tx, deviceResource, id); err != nil {
			return err
		}
		if err := deleteChildren(tx, id); err != nil {
			return translate("delete", deviceResource, id, err)
		}
		return translate("delete", deviceResource, id, tx.Delete(&catalog.Device{}, "id = ?", id).Error)
	})
}

// Count returns the number of stored devices.
func (d *Devices) Count(ctx context.Context) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Model(&catalog.Device{}).Count(&total).Error
	return total, translate("count", deviceResource, 0, err)
}

func writeDevice(tx *gorm.DB, device *catalog.Device) error {
	err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(device).Error
	if err != nil {
		return translate("upsert", deviceResource, device.ID, err)
	}
	return replaceChildren(tx, device)
}

// replaceChildren makes the stored nested collections match device exactly.
// Features, customizations and options already owned by another device are
// never moved: the write fails instead and the transaction rolls back.
func replaceChildren(tx *gorm.DB, device *catalog.Device) error {
	id := device.ID
	if err := deleteChildren(tx, id); err != nil {
		return translate("upsert", deviceResource, id, err)
	}
	if err := checkOwnership(tx, device); err != nil {
		return err
	}

	upsert := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Session(&gorm.Session{})

	if len(device.Features) > 0 {
		for i := range device.Features {
			device.Features[i].DeviceID = &id
		}
		if err := upsert.Create(&device.Features).Error; err != nil {
			return translate("upsert", "feature", id, err)
		}
	}

	var options []catalog.Option
	if len(device.Customizations) > 0 {
		for i := range device.Customizations {
			c := &device.Customizations[i]
			c.DeviceID = &id
			for j := range c.Options {
				c.Options[j].CustomizationID = &c.ID
				options = append(options, c.Options[j])
			}
		}
		if err := upsert.Create(&device.Customizations).Error; err != nil {
			return translate("upsert", "customization", id, err)
		}
	}
	if len(options) > 0 {
		if err := upsert.Create(&options).Error; err != nil {
			return translate("upsert", "option", id, err)
		}
	}

	if len(device.AddOns) > 0 {
		if err := upsert.Create(&device.AddOns).Error; err != nil {
			return translate("upsert", "add-on", id, err)
		}
		links := make([]deviceAddOn, 0, len(device.AddOns))
		for _, a := range device.AddOns {
			links = append(links, deviceAddOn{DeviceID: id, AddOnID: a.ID})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
			return translate("upsert", "add-on link", id, err)
		}
	}
	return nil
}

// checkOwnership fails with an AlreadyExistsError, wrapped in a StoreError,
// when a nested row of device is stored under a different device.
func checkOwnership(tx *gorm.DB, device *catalog.Device) error {
	id := device.ID
	var featureIDs, customizationIDs, optionIDs []int64
	for _, f := range device.Features {
		featureIDs = append(featureIDs, f.ID)
	}
	for _, c := range device.Customizations {
		customizationIDs = append(customizationIDs, c.ID)
		for _, o := range c.Options {
			optionIDs = append(optionIDs, o.ID)
		}
	}

	var taken []int64
	if len(featureIDs) > 0 {
		err := tx.Model(&catalog.Feature{}).
			Where("id IN ? AND device_id IS NOT NULL AND device_id <> ?", featureIDs, id).
			Pluck("id", &taken).Error
		if err != nil {
			return translate("upsert", "feature", id, err)
		}
		if len(taken) > 0 {
			return ownedElsewhere("feature", id, taken[0])
		}
	}
	if len(customizationIDs) > 0 {
		err := tx.Model(&catalog.Customization{}).
			Where("id IN ? AND device_id IS NOT NULL AND device_id <> ?", customizationIDs, id).
			Pluck("id", &taken).Error
		if err != nil {
			return translate("upsert", "customization", id, err)
		}
		if len(taken) > 0 {
			return ownedElsewhere("customization", id, taken[0])
		}
	}
	if len(optionIDs) > 0 {
		err := tx.Model(&catalog.Option{}).
			Joins("JOIN customizations ON customizations.id = options.customization_id").
			Where("options.id IN ? AND customizations.device_id IS NOT NULL AND customizations.device_id <> ?", optionIDs, id).
			Pluck("options.id", &taken).Error
		if err != nil {
			return translate("upsert", "option", id, err)
		}
		if len(taken) > 0 {
			return ownedElsewhere("option", id, taken[0])
		}
	}
	return nil
}

func ownedElsewhere(resource string, deviceID, childID int64) error {
	child := strconv.FormatInt(childID, 10)
	return pkgerrors.WrapStore("upsert", deviceResource, strconv.FormatInt(deviceID, 10),
		pkgerrors.NewAlreadyExistsError(resource, "id", child))
}

func deleteChildren(tx *gorm.DB, deviceID int64) error {
	customizations := tx.Model(&catalog.Customization{}).Select("id").Where("device_id = ?", deviceID)
	if err := tx.Where("customization_id IN (?)", customizations).Delete(&catalog.Option{}).Error; err != nil {
		return err
	}
	if err := tx.Where("device_id = ?", deviceID).Delete(&catalog.Customization{}).Error; err != nil {
		return err
	}
	if err := tx.Where("device_id = ?", deviceID).Delete(&catalog.Feature{}).Error; err != nil {
		return err
	}
	return tx.Where("device_id = ?", deviceID).Delete(&deviceAddOn{}).Error
}

func deleteCustomizationOptions(tx *gorm.DB, id int64) error {
	return tx.Where("customization_id = ?", id).Delete(&catalog.Option{}).Error
}

func deleteAddOnLinks(tx *gorm.DB, id int64) error {
	return tx.Where("add_on_id = ?", id).Delete(&deviceAddOn{}).Error
}
