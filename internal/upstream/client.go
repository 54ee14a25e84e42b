// Package upstream is the client for the remote catalog service that owns
// the device catalog and registers sales.
package upstream

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/sales"
)

// ServiceName identifies the upstream in errors and logs.
const ServiceName = "catedra"

const (
	devicesPath = "/dispositivos"
	salePath    = "/vender"
)

// Config configures the upstream client.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	TokenFile string        `mapstructure:"token_file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Client calls the upstream service with a bearer token.
type Client struct {
	baseURL string
	http    *transport.Client
}

// New creates a client for the upstream at cfg.BaseURL.
func New(cfg Config, opts ...transport.Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.NewConfigError("upstream", "base_url is required", nil)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	opts = append([]transport.Option{transport.WithTimeout(timeout), transport.WithUserAgent("storefront")}, opts...)

	return &Client{
		baseURL: base,
		http:    transport.New(&transport.BearerAuth{}, opts...),
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Devices fetches the authoritative device list. Every failure, whether a
// transport error, a non-2xx status or an undecodable body, is returned as
// an *errors.FetchError.
func (c *Client) Devices(ctx context.Context, token string) ([]catalog.Device, error) {
	url := c.baseURL + devicesPath

	resp, err := c.http.Get(ctx, url, token)
	if err != nil {
		return nil, errors.NewFetchError("devices", url, err)
	}

	var devices []catalog.Device
	if err := transport.DecodeResponse(resp, ServiceName, &devices); err != nil {
		return nil, errors.NewFetchError("devices", url, err)
	}

	logging.FromContext(ctx).Debug().
		Int("count", len(devices)).
		Msg("Fetched upstream devices")
	return devices, nil
}

// saleBody is the payload POSTed to register a sale upstream.
type saleBody struct {
	DeviceID       int64              `json:"idDispositivo"`
	Customizations []sales.PricedItem `json:"personalizaciones"`
	AddOns         []sales.PricedItem `json:"adicionales"`
	FinalPrice     decimal.Decimal    `json:"precioFinal"`
	SaleDate       time.Time          `json:"fechaVenta"`
}

// PlaceSale registers a sale upstream and returns its receipt. A failed call
// is returned as an *errors.SaleError.
func (c *Client) PlaceSale(ctx context.Context, token string, req sales.Request) (*sales.Receipt, error) {
	url := c.baseURL + salePath

	body := saleBody{
		DeviceID:       req.DeviceID,
		Customizations: nonNil(req.Customizations),
		AddOns:         nonNil(req.AddOns),
		FinalPrice:     req.FinalPrice,
		SaleDate:       req.SaleDate,
	}

	resp, err := c.http.PostJSON(ctx, url, token, body)
	if err != nil {
		return nil, errors.NewSaleError(req.DeviceID, err)
	}

	var receipt sales.Receipt
	if err := transport.DecodeResponse(resp, ServiceName, &receipt); err != nil {
		return nil, errors.NewSaleError(req.DeviceID, err)
	}
	if receipt.SaleID == 0 {
		return nil, errors.NewSaleError(req.DeviceID, errors.NewAPIError(ServiceName, resp.StatusCode, "response carries no idVenta"))
	}
	return &receipt, nil
}

func nonNil(items []sales.PricedItem) []sales.PricedItem {
	if items == nil {
		return []sales.PricedItem{}
	}
	return items
}
