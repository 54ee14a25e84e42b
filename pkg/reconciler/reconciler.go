// Package reconciler converges the local device store onto the upstream
// device list.
//
// A pass is additive: upstream devices missing locally are inserted,
// devices whose content differs are overwritten, and local devices absent
// upstream are left alone. Every write is independent, so a pass that stops
// half way is completed by the next one.
package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// DeviceStore is the local persistence the reconciler writes to.
type DeviceStore interface {
	ListAll(ctx context.Context) ([]catalog.Device, error)
	Upsert(ctx context.Context, device catalog.Device) (catalog.Device, error)
}

// Reconciler applies an upstream device list to the local store.
type Reconciler interface {
	// Reconcile runs one reconciliation pass over remote, in remote order.
	Reconcile(ctx context.Context, remote []catalog.Device) (*Result, error)
}

type reconciler struct {
	store  DeviceStore
	hooks  *Hooks
	dryRun bool
}

// New creates a Reconciler writing to store.
func New(store DeviceStore, opts ...Option) (Reconciler, error) {
	if store == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		store:  store,
		hooks:  options.hooks,
		dryRun: options.dryRun,
	}, nil
}

// Reconcile implements Reconciler. Upstream devices that fail validation are
// skipped and counted. A store failure stops the pass and is returned as an
// *errors.StoreError together with the partial result.
func (r *reconciler) Reconcile(ctx context.Context, remote []catalog.Device) (*Result, error) {
	logger := logging.FromContext(ctx)
	result := &Result{StartTime: time.Now(), DryRun: r.dryRun}
	defer result.finish()

	local, err := r.store.ListAll(ctx)
	if err != nil {
		return result, errors.WrapStore("list", "device", "", unwrapStore(err))
	}

	index := make(map[int64]catalog.Device, len(local))
	for _, d := range local {
		index[d.ID] = d
	}

	for _, device := range remote {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %v", errors.ErrCanceled, err)
		}

		if err := device.Validate(); err != nil {
			result.Skipped++
			logger.Warn().Err(err).Int64("device_id", device.ID).Str("codigo", device.Code).Msg("Invalid upstream device skipped")
			continue
		}

		existing, found := index[device.ID]
		switch {
		case !found:
			if err := r.write(ctx, device); err != nil {
				return result, err
			}
			result.Added++
			logger.Info().Int64("device_id", device.ID).Str("codigo", device.Code).Msg("Device added")
			r.hooks.deviceAdded(device)

		case !existing.Equal(device):
			changes := catalog.Changes(existing, device)
			if err := r.write(ctx, device); err != nil {
				return result, err
			}
			result.Updated++
			logger.Info().Int64("device_id", device.ID).Strs("changed", changes).Msg("Device updated")
			r.hooks.deviceUpdated(existing, device)

		default:
			result.Unchanged++
		}

		// A repeated id later in the same feed compares against what was
		// just written.
		index[device.ID] = device
	}

	logger.Debug().
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("skipped", result.Skipped).
		Bool("dry_run", r.dryRun).
		Msg("Reconciliation pass complete")
	return result, nil
}

func (r *reconciler) write(ctx context.Context, device catalog.Device) error {
	if r.dryRun {
		return nil
	}
	if _, err := r.store.Upsert(ctx, device); err != nil {
		return errors.WrapStore("upsert", "device", strconv.FormatInt(device.ID, 10), unwrapStore(err))
	}
	return nil
}

// unwrapStore avoids nesting a StoreError inside another one.
func unwrapStore(err error) error {
	if storeErr, ok := err.(*errors.StoreError); ok && storeErr.Err != nil {
		return storeErr.Err
	}
	return err
}
