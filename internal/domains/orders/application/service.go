package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Service orchestrates checkout and order history.
type Service struct {
	repo      ports.Repository
	catalog   ports.Catalog
	carts     ports.Carts
	publisher ports.EventPublisher
	idem      ports.IdempotencyStore
	policy    domain.ShippingPolicy
	now       func() time.Time
	logger    *slog.Logger
	keyWait   time.Duration
	keyPoll   time.Duration
}

type Option func(*Service)

func WithCarts(carts ports.Carts) Option {
	return func(s *Service) { s.carts = carts }
}

func WithPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idem = store }
}

func WithShippingPolicy(policy domain.ShippingPolicy) Option {
	return func(s *Service) { s.policy = policy }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyWait bounds how long a retry waits on an in-flight checkout with the same key.
func WithKeyWait(wait, poll time.Duration) Option {
	return func(s *Service) {
		if wait > 0 {
			s.keyWait = wait
		}
		if poll > 0 {
			s.keyPoll = poll
		}
	}
}

// WithLogger reports follow-up failures that do not fail the checkout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo ports.Repository, catalog ports.Catalog, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: catalog,
		policy:  domain.DefaultShippingPolicy(),
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		keyWait: 10 * time.Second,
		keyPoll: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Checkout places the order, then clears the cart and publishes the event.
// Follow-up failures are logged; the order stands. Replays skip follow-ups.
func (s *Service) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*ports.CheckoutResult, error) {
	result, err := s.PlaceOrder(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}
	if err := s.ClearCart(ctx, cmd.UserID, cmd.GuestToken); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to clear cart after checkout",
			slog.String("order.number", result.Order.Number), slog.String("error", err.Error()))
	}
	if err := s.publishPlaced(ctx, result.Order); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish order placed",
			slog.String("order.number", result.Order.Number), slog.String("error", err.Error()))
	}
	return result, nil
}

// PlaceOrder validates, prices from the catalog, and persists with stock reservation.
// A keyed checkout reserves its key first; a concurrent retry waits for the
// holder and replays its order.
func (s *Service) PlaceOrder(ctx context.Context, cmd ports.CheckoutCommand) (*ports.CheckoutResult, error) {
	req := cmd.Request.Normalize()
	if err := req.Validate(); err != nil {
		return nil, mapError(err)
	}

	var claim *ports.CheckoutKey
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" && s.idem != nil {
		hash, err := FingerprintCheckout(cmd)
		if err != nil {
			return nil, err
		}
		var replay *ports.CheckoutResult
		claim, replay, err = s.claimKey(ctx, ports.KeyScope(cmd.UserID, cmd.GuestToken), key, hash)
		if err != nil || replay != nil {
			return replay, err
		}
	}
	placed := false
	defer func() {
		if claim != nil && !placed {
			if err := s.idem.Release(context.WithoutCancel(ctx), *claim); err != nil {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to release idempotency key", slog.String("error", err.Error()))
			}
		}
	}()

	lines, err := s.priceLines(ctx, req, cmd.Locale)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	order, err := domain.NewOrder(cmd.UserID, req.Contact, req.Shipping, lines, req.PaymentMethod, s.policy, cmd.Locale, now)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	placed = true

	if claim != nil {
		claim.OrderID = saved.ID
		claim.ExpiresAt = now.Add(ports.CheckoutKeyTTL)
		if err := s.idem.Complete(ctx, *claim); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to record idempotency key",
				slog.String("order.number", saved.Number), slog.String("error", err.Error()))
		}
	}
	return &ports.CheckoutResult{Order: saved}, nil
}

// claimKey reserves the key, or resolves an existing entry: a different
// payload conflicts, a completed one replays, a pending one is polled until
// its holder completes or releases it.
func (s *Service) claimKey(ctx context.Context, scope, key, hash string) (*ports.CheckoutKey, *ports.CheckoutResult, error) {
	deadline := time.NewTimer(s.keyWait)
	defer deadline.Stop()
	for {
		now := s.now().UTC()
		claim := ports.CheckoutKey{
			Scope:       scope,
			Key:         key,
			RequestHash: hash,
			Token:       uuid.NewString(),
			CreatedAt:   now,
			ExpiresAt:   now.Add(ports.CheckoutKeyLease),
		}
		held, err := s.idem.Reserve(ctx, claim)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case held == nil:
			return &claim, nil, nil
		case held.RequestHash != hash:
			return nil, nil, mapError(ports.ErrIdempotencyConflict)
		case !held.Pending():
			order, err := s.repo.GetByID(ctx, held.OrderID)
			if err != nil {
				return nil, nil, err
			}
			return nil, &ports.CheckoutResult{Order: order, Replayed: true}, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-deadline.C:
			return nil, nil, mapError(fmt.Errorf("%w: checkout still in progress", ports.ErrIdempotencyConflict))
		case <-time.After(s.keyPoll):
		}
	}
}

// priceLines ignores any client-side price and uses the catalog.
func (s *Service) priceLines(ctx context.Context, req domain.CheckoutRequest, locale string) ([]domain.Line, error) {
	items := req.MergedItems()
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	prices, err := s.catalog.Prices(ctx, ids, locale)
	if err != nil {
		return nil, err
	}
	verr := &domain.ValidationError{}
	lines := make([]domain.Line, 0, len(items))
	for _, item := range items {
		idx := firstIndex(req.Items, item.VariantID)
		price, ok := prices[item.VariantID]
		if !ok || !price.Active {
			verr.Add(fmt.Sprintf("items[%d].variantId", idx), domain.MsgVariant)
			continue
		}
		if item.Quantity > domain.MaxLineQuantity {
			verr.Add(fmt.Sprintf("items[%d].quantity", idx), domain.MsgQuantity)
			continue
		}
		lines = append(lines, domain.Line{
			VariantID:   item.VariantID,
			ProductID:   price.ProductID,
			ProductName: price.ProductName,
			VolumeML:    price.VolumeML,
			UnitPrice:   price.Price,
			Quantity:    item.Quantity,
		})
	}
	if err := verr.OrNil(); err != nil {
		return nil, mapError(err)
	}
	return lines, nil
}

func (s *Service) ClearCart(ctx context.Context, userID, guestToken string) error {
	if s.carts == nil {
		return nil
	}
	return s.carts.Clear(ctx, userID, guestToken)
}

// PublishPlaced emits OrderPlaced for a persisted order.
func (s *Service) PublishPlaced(ctx context.Context, orderID string) error {
	if s.publisher == nil {
		return nil
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	return s.publishPlaced(ctx, order)
}

func (s *Service) publishPlaced(ctx context.Context, order *domain.Order) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, domain.NewOrderPlaced(order, s.now().UTC()))
}

func (s *Service) ListOrders(ctx context.Context, userID string, page, pageSize int) (projection.Page[*domain.Order], error) {
	if strings.TrimSpace(userID) == "" {
		return projection.Page[*domain.Order]{}, ports.ErrNotFound
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

// GetOrder returns the order only to its owner.
func (s *Service) GetOrder(ctx context.Context, userID, number string) (*domain.Order, error) {
	order, err := s.repo.GetByNumber(ctx, domain.NormalizeNumber(number))
	if err != nil {
		return nil, err
	}
	if userID == "" || order.UserID != userID {
		return nil, ports.ErrNotFound
	}
	return order, nil
}

// LookupGuestOrder finds an order by number and contact email.
func (s *Service) LookupGuestOrder(ctx context.Context, number, email string) (*domain.Order, error) {
	if strings.TrimSpace(number) == "" || strings.TrimSpace(email) == "" {
		return nil, ports.ErrNotFound
	}
	order, err := s.repo.GetByNumber(ctx, domain.NormalizeNumber(number))
	if err != nil {
		return nil, err
	}
	if !order.MatchesEmail(email) {
		return nil, ports.ErrNotFound
	}
	return order, nil
}

// CancelOrder cancels a pending order and puts its stock back.
func (s *Service) CancelOrder(ctx context.Context, userID, number string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, number)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := order.Cancel(now); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.Cancel(ctx, order); err != nil {
		return nil, mapError(err)
	}
	if s.publisher != nil {
		event := domain.OrderCancelled{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: order.ID, Number: order.Number, UserID: order.UserID}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish order cancelled",
				slog.String("order.number", order.Number), slog.String("error", err.Error()))
		}
	}
	return order, nil
}

// ClaimGuestOrders attaches earlier guest orders to a newly registered account.
func (s *Service) ClaimGuestOrders(ctx context.Context, userID, email string) (int, error) {
	userID, email = strings.TrimSpace(userID), domain.NormalizeEmail(email)
	if userID == "" || email == "" {
		return 0, nil
	}
	n, err := s.repo.ClaimGuestOrders(ctx, userID, email)
	return int(n), err
}

func firstIndex(items []domain.CheckoutItem, variantID int64) int {
	for i, item := range items {
		if item.VariantID == variantID {
			return i
		}
	}
	return 0
}

var _ ports.Service = (*Service)(nil)
