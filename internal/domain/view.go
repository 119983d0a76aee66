package domain

// CartLineView is one row of a rendered cart.
type CartLineView struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

// CartView is the display model of a cart. Positions are one-based.
type CartView struct {
	Lines     []CartLineView `json:"lines"`
	Total     string         `json:"total"`
	ItemCount int            `json:"itemCount"`
	Empty     bool           `json:"empty"`
}

// RenderCart builds the view model for c without touching it.
func RenderCart(c *Cart) CartView {
	items := c.Items()
	view := CartView{
		Lines:     make([]CartLineView, len(items)),
		Total:     FormatMoney(c.Total()),
		ItemCount: c.ItemCount(),
		Empty:     len(items) == 0,
	}
	for i, item := range items {
		view.Lines[i] = CartLineView{
			Position:  i + 1,
			Name:      item.Name,
			UnitPrice: FormatMoney(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: FormatMoney(item.LineTotal()),
		}
	}
	return view
}
