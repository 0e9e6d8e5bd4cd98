package application

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

// Service orchestrates cart use cases.
type Service struct {
	repo    ports.Repository
	catalog ports.Catalog
	now     func() time.Time
}

func NewService(repo ports.Repository, catalog ports.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) GetCart(ctx context.Context, owner domain.Owner, locale string) (*domain.View, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	cart, err := s.repo.Get(ctx, owner.Key())
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart, locale)
}

func (s *Service) AddItem(ctx context.Context, owner domain.Owner, variantID int64, quantity int, locale string) (*domain.View, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	info, err := s.variant(ctx, variantID, locale)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, owner.Key())
	if err != nil {
		return nil, err
	}
	if _, err := cart.Add(variantID, info.ProductID, quantity, info.Stock, s.now().UTC()); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.price(ctx, cart, locale)
}

func (s *Service) UpdateItem(ctx context.Context, owner domain.Owner, variantID int64, quantity int, locale string) (*domain.View, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	if variantID <= 0 {
		return nil, mapError(domain.ErrInvalidVariant)
	}
	cart, err := s.repo.Get(ctx, owner.Key())
	if err != nil {
		return nil, err
	}
	stock := 0
	if quantity > 0 {
		info, err := s.variant(ctx, variantID, locale)
		if err != nil {
			return nil, err
		}
		stock = info.Stock
	}
	if err := cart.Set(variantID, quantity, stock, s.now().UTC()); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.price(ctx, cart, locale)
}

func (s *Service) RemoveItem(ctx context.Context, owner domain.Owner, variantID int64, locale string) (*domain.View, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	cart, err := s.repo.Get(ctx, owner.Key())
	if err != nil {
		return nil, err
	}
	cart.Remove(variantID, s.now().UTC())
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.price(ctx, cart, locale)
}

func (s *Service) Clear(ctx context.Context, owner domain.Owner) error {
	if err := owner.Validate(); err != nil {
		return mapError(err)
	}
	return s.repo.Delete(ctx, owner.Key())
}

// MergeGuestCart moves a guest cart into the user's cart and deletes it.
func (s *Service) MergeGuestCart(ctx context.Context, guestToken, userID string) error {
	guestToken, userID = strings.TrimSpace(guestToken), strings.TrimSpace(userID)
	if guestToken == "" || userID == "" {
		return nil
	}
	guestKey := domain.GuestOwner(guestToken).Key()
	guest, err := s.repo.Get(ctx, guestKey)
	if err != nil {
		return err
	}
	if len(guest.Items) == 0 {
		return nil
	}
	user, err := s.repo.Get(ctx, domain.UserOwner(userID).Key())
	if err != nil {
		return err
	}
	infos, err := s.catalog.Variants(ctx, guest.VariantIDs(), "")
	if err != nil {
		return err
	}
	user.Merge(guest, func(variantID int64) int {
		info, ok := infos[variantID]
		if !ok || !info.Active {
			return 0
		}
		return info.Stock
	}, s.now().UTC())
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}
	return s.repo.Delete(ctx, guestKey)
}

func (s *Service) variant(ctx context.Context, variantID int64, locale string) (ports.VariantInfo, error) {
	if variantID <= 0 {
		return ports.VariantInfo{}, mapError(domain.ErrInvalidVariant)
	}
	infos, err := s.catalog.Variants(ctx, []int64{variantID}, locale)
	if err != nil {
		return ports.VariantInfo{}, err
	}
	info, ok := infos[variantID]
	if !ok || !info.Active {
		return ports.VariantInfo{}, ports.ErrVariantNotFound
	}
	return info, nil
}

// price joins the cart against the catalog. Lines whose variant vanished or
// sold out stay in the cart but are excluded from the subtotal.
func (s *Service) price(ctx context.Context, cart *domain.Cart, locale string) (*domain.View, error) {
	view := &domain.View{OwnerKey: cart.OwnerKey, Lines: make([]domain.Line, 0, len(cart.Items)), Subtotal: decimal.Zero}
	if len(cart.Items) == 0 {
		return view, nil
	}
	infos, err := s.catalog.Variants(ctx, cart.VariantIDs(), locale)
	if err != nil {
		return nil, err
	}
	for _, item := range cart.Items {
		line := domain.Line{Item: item, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		if info, ok := infos[item.VariantID]; ok {
			line.ProductName = info.ProductName
			line.ProductSlug = info.ProductSlug
			line.Image = info.Image
			line.VolumeML = info.VolumeML
			line.UnitPrice = info.Price
			line.Stock = info.Stock
			line.Available = info.Active && info.Stock >= item.Quantity
			line.LineTotal = info.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		if line.Available {
			view.Subtotal = view.Subtotal.Add(line.LineTotal)
			view.ItemCount += item.Quantity
		}
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}

var _ ports.Service = (*Service)(nil)
