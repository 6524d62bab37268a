package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/notifier"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive whole number")

// CartService holds one client's cart. Lines keep insertion order and
// there is at most one line per material id.
type CartService struct {
	mu       sync.Mutex
	lines    []models.CartLine
	notifier notifier.Notifier
	metrics  *metrics.Metrics
}

func NewCartService(n notifier.Notifier, m *metrics.Metrics) *CartService {
	if n == nil {
		n = notifier.Nop
	}
	return &CartService{notifier: n, metrics: m}
}

// Add increases the quantity of an existing line or appends a new one
// holding a copy of material.
func (s *CartService) Add(ctx context.Context, material models.Material, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	next := s.copyLines()
	updated := false
	for i := range next {
		if next[i].Material.ID == material.ID {
			next[i].Quantity += quantity
			updated = true
			break
		}
	}
	if !updated {
		next = append(next, models.CartLine{Material: material, Quantity: quantity})
	}
	s.lines = next
	s.mu.Unlock()

	if updated {
		s.metrics.CartMutation("update")
		s.notifier.Notify(ctx, notifier.Success("cart.updated", fmt.Sprintf("Updated %s quantity in cart", material.Name)))
	} else {
		s.metrics.CartMutation("add")
		s.notifier.Notify(ctx, notifier.Success("cart.added", fmt.Sprintf("Added %s to cart", material.Name)))
	}
	return nil
}

// UpdateQuantity sets a line's quantity exactly. A quantity of zero or
// less removes the line; unknown ids are ignored.
func (s *CartService) UpdateQuantity(ctx context.Context, materialID string, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, materialID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.copyLines()
	for i := range next {
		if next[i].Material.ID == materialID {
			next[i].Quantity = quantity
			s.lines = next
			s.metrics.CartMutation("set")
			return
		}
	}
}

func (s *CartService) Remove(ctx context.Context, materialID string) {
	s.mu.Lock()
	var removed *models.Material
	next := make([]models.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		if l.Material.ID == materialID {
			m := l.Material
			removed = &m
			continue
		}
		next = append(next, l)
	}
	s.lines = next
	s.mu.Unlock()

	if removed != nil {
		s.metrics.CartMutation("remove")
		s.notifier.Notify(ctx, notifier.Info("cart.removed", fmt.Sprintf("Removed %s from cart", removed.Name)))
	}
}

func (s *CartService) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	s.metrics.CartMutation("clear")
	s.notifier.Notify(ctx, notifier.Info("cart.cleared", "Cart cleared"))
}

// Lines returns a copy of the cart lines in insertion order.
func (s *CartService) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

func (s *CartService) TotalItems() int {
	return totalItems(s.Lines())
}

// TotalPrice sums price times quantity over all lines as quoted, without
// currency conversion.
func (s *CartService) TotalPrice() float64 {
	return totalPrice(s.Lines())
}

// Snapshot returns lines and totals computed from a single read.
func (s *CartService) Snapshot() models.Cart {
	lines := s.Lines()
	return models.Cart{Items: lines, TotalItems: totalItems(lines), TotalPrice: totalPrice(lines)}
}

// Estimate builds the printable estimate: per-line totals, grand totals
// and the distinct suppliers of the lines in first-seen order.
func (s *CartService) Estimate() models.Estimate {
	lines := s.Lines()
	est := models.Estimate{
		Lines:      make([]models.EstimateLine, 0, len(lines)),
		Suppliers:  []models.SupplierContact{},
		TotalItems: totalItems(lines),
		TotalPrice: totalPrice(lines),
	}
	seen := make(map[string]bool)
	for _, l := range lines {
		est.Lines = append(est.Lines, models.EstimateLine{
			MaterialID: l.Material.ID,
			Name:       l.Material.Name,
			Unit:       l.Material.Unit,
			UnitPrice:  l.Material.Price,
			Quantity:   l.Quantity,
			LineTotal:  l.LineTotal(),
		})
		if !seen[l.Material.Supplier] {
			seen[l.Material.Supplier] = true
			est.Suppliers = append(est.Suppliers, models.SupplierContact{Name: l.Material.Supplier, Contact: l.Material.Contact})
		}
	}
	return est
}

func (s *CartService) copyLines() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func totalItems(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalPrice(lines []models.CartLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
