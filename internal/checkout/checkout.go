// Package checkout places sales: the upstream service accepts the sale
// first and only then is it recorded locally under the upstream sale id.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/storefront/internal/token"
	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

// Upstream accepts sales.
type Upstream interface {
	PlaceSale(ctx context.Context, token string, req sales.Request) (*sales.Receipt, error)
}

// SaleStore records accepted sales.
type SaleStore interface {
	Create(ctx context.Context, sale *sales.Sale) error
}

// UserLookup resolves the buyer.
type UserLookup interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// PlacedHook is called after a sale has been recorded locally.
type PlacedHook func(sale sales.Sale, receipt sales.Receipt)

// Service places sales.
type Service struct {
	tokens   token.Source
	upstream Upstream
	sales    SaleStore
	users    UserLookup
	mu       sync.RWMutex
	onPlaced []PlacedHook
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPlacedHook registers a callback for recorded sales.
func WithPlacedHook(fn PlacedHook) Option {
	return func(s *Service) {
		if fn != nil {
			s.onPlaced = append(s.onPlaced, fn)
		}
	}
}

// New creates a Service.
func New(tokens token.Source, upstream Upstream, saleStore SaleStore, userLookup UserLookup, opts ...Option) *Service {
	s := &Service{
		tokens:   tokens,
		upstream: upstream,
		sales:    saleStore,
		users:    userLookup,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnPlaced registers a callback for recorded sales after construction.
func (s *Service) OnPlaced(fn PlacedHook) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPlaced = append(s.onPlaced, fn)
}

// Place sends req upstream and, once accepted, records the sale keyed by
// the upstream idVenta with ganancia equal to the final price. When the
// upstream call fails nothing is written locally and the *errors.SaleError
// is returned.
func (s *Service) Place(ctx context.Context, req sales.Request) (*sales.Sale, *sales.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	logger := logging.FromContext(logging.WithDevice(ctx, req.DeviceID))

	tok, err := s.tokens.Token()
	if err != nil {
		return nil, nil, err
	}

	buyer, err := s.users.Get(ctx, req.User.ID)
	if err != nil {
		return nil, nil, err
	}

	if req.SaleDate.IsZero() {
		req.SaleDate = s.now().UTC()
	}

	receipt, err := s.upstream.PlaceSale(ctx, tok, req)
	if err != nil {
		logger.Warn().Err(err).Msg("Upstream rejected sale")
		return nil, nil, err
	}

	sale := &sales.Sale{
		ID:       receipt.SaleID,
		SaleDate: req.SaleDate,
		Profit:   req.FinalPrice,
		DeviceID: ptr.Int64(req.DeviceID),
		UserID:   &buyer.ID,
		User:     &users.Ref{ID: buyer.ID, Login: buyer.Login},
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		logger.Error().
			Err(err).
			Int64("sale_id", receipt.SaleID).
			Msg("Sale accepted upstream but could not be recorded locally")
		return nil, receipt, errors.WrapStore("create", "sale", "", err)
	}

	logger.Info().
		Int64("sale_id", sale.ID).
		Str("login", buyer.Login).
		Str("precio_final", sale.Profit.String()).
		Msg("Sale placed")
	s.mu.RLock()
	hooks := s.onPlaced
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(*sale, *receipt)
	}
	return sale, receipt, nil
}
