package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

var (
	// ErrNotFound indicates the product is not in the current catalog.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidInput is returned when the provided quantity or id is invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBusy is returned when another request holds the session for too long.
	ErrBusy = errors.New("cart is busy")
)

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Service encapsulates cart operations over a session Store.
type Service struct {
	Store   Store
	Catalog ProductLookup
	Logger  zerolog.Logger
}

// QuoteResult is the per-unit price of a product against the current cart.
type QuoteResult struct {
	ProductID     string `json:"productId"`
	PooledMinimum bool   `json:"pooledMinimum"`
	InCart        bool   `json:"inCart"`
	pricing.Quote
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// Get returns the summary of the session cart.
func (s *Service) Get(ctx context.Context, session string) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	c, err := s.Store.Load(ctx, session)
	if err != nil {
		return Summary{}, err
	}
	return c.Summary(), nil
}

// Add puts qty units of productID into the cart. qty must be at least 1.
func (s *Service) Add(ctx context.Context, session, productID string, qty int) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	if productID == "" || qty < 1 {
		return Summary{}, ErrInvalidInput
	}
	p, err := s.lookup(ctx, productID)
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, session, "add", func(c *Cart) error {
		c.Add(p, qty)
		return nil
	})
}

// Update sets the quantity of a line. Zero keeps the line; unknown ids leave the cart as is.
func (s *Service) Update(ctx context.Context, session, productID string, qty int) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	if qty < 0 {
		return Summary{}, ErrInvalidInput
	}
	return s.mutate(ctx, session, "update", func(c *Cart) error {
		c.UpdateQuantity(productID, qty)
		return nil
	})
}

// Remove drops a line from the cart.
func (s *Service) Remove(ctx context.Context, session, productID string) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, session, "remove", func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, session string) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, session, "clear", func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// Quote prices productID against the session cart without changing it.
func (s *Service) Quote(ctx context.Context, session, productID string) (QuoteResult, error) {
	if err := s.ready(); err != nil {
		return QuoteResult{}, err
	}
	if productID == "" {
		return QuoteResult{}, ErrInvalidInput
	}
	p, err := s.lookup(ctx, productID)
	if err != nil {
		return QuoteResult{}, err
	}
	c, err := s.Store.Load(ctx, session)
	if err != nil {
		return QuoteResult{}, err
	}
	inCart := false
	for _, it := range c.Items() {
		if it.Product.ID == productID {
			inCart = true
			break
		}
	}
	return QuoteResult{
		ProductID:     p.ID,
		PooledMinimum: c.IsPooledMinimum(p),
		InCart:        inCart,
		Quote:         c.Quote(p),
	}, nil
}

func (s *Service) lookup(ctx context.Context, productID string) (catalog.Product, error) {
	if s.Catalog == nil {
		return catalog.Product{}, errors.New("cart: catalog not configured")
	}
	p, err := s.Catalog.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Product{}, ErrNotFound
		}
		return catalog.Product{}, fmt.Errorf("lookup product: %w", err)
	}
	return p, nil
}

func (s *Service) mutate(ctx context.Context, session, op string, fn func(*Cart) error) (Summary, error) {
	c, err := s.Store.Mutate(ctx, session, fn)
	if err != nil {
		return Summary{}, err
	}
	summary := c.Summary()
	obs.ObserveCartMutation(op)
	obs.ObserveSurchargedLines(summary.Surcharged())
	s.Logger.Debug().
		Str("op", op).
		Int("lines", len(summary.Lines)).
		Int("pooled", summary.Pools.Pooled).
		Bool("warning", summary.ShowAccessoryWarning).
		Msg("cart mutated")
	return summary, nil
}
