package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/grocify/pkg/errors"
)

// LineItem is one product entry in a cart.
type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered set of line items, unique by name, kept in first-add
// order. The zero value is an empty cart ready to use.
type Cart struct {
	items []LineItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem puts one unit of name into the cart. A name already present has its
// quantity bumped instead of getting a second line.
func (c *Cart) AddItem(name string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.InvalidInput("item name is required")
	}
	if price.IsNegative() {
		return apperrors.InvalidInput(fmt.Sprintf("price of %q must not be negative", name))
	}

	if i := c.indexOf(name); i >= 0 {
		c.items[i].Quantity++
		return nil
	}

	c.items = append(c.items, LineItem{Name: name, UnitPrice: price, Quantity: 1})
	return nil
}

// SetQuantity overwrites the quantity of the line at index (zero-based).
// Quantities below one are rejected, never clamped.
func (c *Cart) SetQuantity(index, quantity int) error {
	if index < 0 || index >= len(c.items) {
		return apperrors.NotFound("line item", strconv.Itoa(index+1))
	}
	if quantity < 1 {
		return apperrors.InvalidQuantity(fmt.Sprintf("quantity must be at least 1, got %d", quantity))
	}
	c.items[index].Quantity = quantity
	return nil
}

// ParseQuantity converts user input into a quantity for SetQuantity.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperrors.InvalidQuantity(fmt.Sprintf("quantity %q is not a whole number", raw))
	}
	return q, nil
}

// RemoveItem drops every line named name and returns how many were removed.
func (c *Cart) RemoveItem(name string) int {
	name = strings.TrimSpace(name)
	kept := c.items[:0]
	removed := 0
	for _, item := range c.items {
		if item.Name == name {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	clear(c.items[len(kept):])
	c.items = kept
	return removed
}

// Total returns the sum of all line totals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the line items in cart order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemCount returns the number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Lines converts the cart into order lines.
func (c *Cart) Lines() []OrderLine {
	lines := make([]OrderLine, len(c.items))
	for i, item := range c.items {
		lines[i] = OrderLine{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return lines
}

// Summary renders the cart as an items summary, e.g. "Bread (x1), Milk (x2)".
func (c *Cart) Summary() string {
	return FormatItemsSummary(c.Lines())
}

func (c *Cart) indexOf(name string) int {
	for i := range c.items {
		if c.items[i].Name == name {
			return i
		}
	}
	return -1
}

type cartJSON struct {
	Items []LineItem `json:"items"`
}

// MarshalJSON implements json.Marshaler.
func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartJSON{Items: c.Items()})
}

// UnmarshalJSON implements json.Unmarshaler. Stored carts must satisfy the
// same rules as carts built through AddItem and SetQuantity.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(raw.Items))
	for _, item := range raw.Items {
		if item.Name == "" {
			return apperrors.InvalidInput("cart line without a name")
		}
		if _, dup := seen[item.Name]; dup {
			return apperrors.InvalidInput(fmt.Sprintf("duplicate cart line %q", item.Name))
		}
		if item.UnitPrice.IsNegative() {
			return apperrors.InvalidInput(fmt.Sprintf("price of %q must not be negative", item.Name))
		}
		if item.Quantity < 1 {
			return apperrors.InvalidQuantity(fmt.Sprintf("quantity of %q must be at least 1", item.Name))
		}
		seen[item.Name] = struct{}{}
	}

	c.items = raw.Items
	return nil
}
