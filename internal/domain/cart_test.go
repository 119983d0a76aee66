package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	apperrors "github.com/utafrali/grocify/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_NewAndRepeated(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Milk", d("50")))
	require.NoError(t, c.AddItem("Milk", d("50")))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Items()[0].Quantity)
	assert.True(t, d("100").Equal(c.Total()))
}

func TestAddItem_KeepsFirstAddOrder(t *testing.T) {
	var c Cart
	require.NoError(t, c.AddItem("Bread", d("40")))
	require.NoError(t, c.AddItem("Milk", d("50")))
	require.NoError(t, c.AddItem("Bread", d("40")))

	items := c.Items()
	assert.Equal(t, "Bread", items[0].Name)
	assert.Equal(t, "Milk", items[1].Name)
}

func TestAddItem_Rejects(t *testing.T) {
	c := NewCart()

	err := c.AddItem("  ", d("10"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	err = c.AddItem("Eggs", d("-1"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	assert.True(t, c.IsEmpty())
}

// ============================================================================
// SetQuantity / ParseQuantity
// ============================================================================

func TestSetQuantity(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Milk", d("50")))

	require.NoError(t, c.SetQuantity(0, 3))
	assert.Equal(t, 3, c.Items()[0].Quantity)
	assert.True(t, d("150").Equal(c.Total()))
}

func TestSetQuantity_RejectsBelowOne(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Milk", d("50")))

	for _, q := range []int{0, -2} {
		err := c.SetQuantity(0, q)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidQuantity))
	}
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestSetQuantity_OutOfRange(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Milk", d("50")))

	assert.True(t, errors.Is(c.SetQuantity(1, 2), apperrors.ErrNotFound))
	assert.True(t, errors.Is(c.SetQuantity(-1, 2), apperrors.ErrNotFound))
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, q)

	_, err = ParseQuantity("four")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidQuantity))
}

// ============================================================================
// RemoveItem / Clear
// ============================================================================

func TestRemoveItem(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Bread", d("40")))
	require.NoError(t, c.AddItem("Milk", d("50")))

	assert.Equal(t, 0, c.RemoveItem("milk"))
	assert.Equal(t, 1, c.RemoveItem("Milk"))
	assert.Equal(t, []string{"Bread"}, names(c))
}

func TestRemoveItem_TrimsName(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("  Milk ", d("50")))
	require.NoError(t, c.AddItem("Bread", d("40")))

	assert.Equal(t, 1, c.RemoveItem(" Milk  "))
	assert.Equal(t, []string{"Bread"}, names(c))
	assert.Equal(t, 0, c.RemoveItem("   "))
}

func TestClear(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Milk", d("50")))
	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestSummaryAndLines(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Bread", d("40")))
	require.NoError(t, c.AddItem("Milk", d("50")))
	require.NoError(t, c.AddItem("Milk", d("50")))

	assert.Equal(t, "Bread (x1), Milk (x2)", c.Summary())
	assert.True(t, d("140").Equal(c.Total()))
	assert.True(t, c.Total().Equal(LinesTotal(c.Lines())))
	assert.Equal(t, 3, c.ItemCount())
}

// ============================================================================
// JSON
// ============================================================================

func TestCartJSON_RoundTrip(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem("Bread", d("40.50")))
	require.NoError(t, c.AddItem("Milk", d("50")))
	require.NoError(t, c.SetQuantity(1, 2))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"name":"Bread","unitPrice":40.5,"quantity":1},{"name":"Milk","unitPrice":50,"quantity":2}]}`, string(data))

	var back Cart
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Summary(), back.Summary())
	assert.True(t, c.Total().Equal(back.Total()))
}

func TestCartJSON_Empty(t *testing.T) {
	data, err := json.Marshal(NewCart())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(data))
}

func TestCartJSON_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate":     `{"items":[{"name":"Milk","unitPrice":1,"quantity":1},{"name":"Milk","unitPrice":1,"quantity":1}]}`,
		"zero quantity": `{"items":[{"name":"Milk","unitPrice":1,"quantity":0}]}`,
		"no name":       `{"items":[{"name":"","unitPrice":1,"quantity":1}]}`,
		"negative":      `{"items":[{"name":"Milk","unitPrice":-1,"quantity":1}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var c Cart
			assert.Error(t, json.Unmarshal([]byte(body), &c))
		})
	}
}

// ============================================================================
// Properties
// ============================================================================

func TestCart_Properties(t *testing.T) {
	catalog := []string{"Milk", "Bread", "Eggs", "Rice", "Apples"}

	rapid.Check(t, func(t *rapid.T) {
		c := NewCart()
		prices := map[string]decimal.Decimal{}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				name := rapid.SampledFrom(catalog).Draw(t, "name")
				price, ok := prices[name]
				if !ok {
					price = decimal.New(int64(rapid.IntRange(0, 100000).Draw(t, "cents")), -2)
					prices[name] = price
				}
				before := c.Len()
				_, present := indexOf(c, name)
				if err := c.AddItem(name, price); err != nil {
					t.Fatalf("add %s: %v", name, err)
				}
				if present && c.Len() != before {
					t.Fatalf("adding existing %s created a duplicate line", name)
				}
			case 1:
				if c.IsEmpty() {
					continue
				}
				idx := rapid.IntRange(0, c.Len()-1).Draw(t, "index")
				q := rapid.IntRange(-3, 20).Draw(t, "quantity")
				err := c.SetQuantity(idx, q)
				if q < 1 && err == nil {
					t.Fatalf("quantity %d accepted", q)
				}
			case 2:
				c.RemoveItem(rapid.SampledFrom(catalog).Draw(t, "remove"))
			}

			want := decimal.Zero
			seen := map[string]bool{}
			for _, item := range c.Items() {
				if seen[item.Name] {
					t.Fatalf("duplicate line %s", item.Name)
				}
				seen[item.Name] = true
				if item.Quantity < 1 {
					t.Fatalf("line %s has quantity %d", item.Name, item.Quantity)
				}
				want = want.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
			if !want.Equal(c.Total()) {
				t.Fatalf("total %s, recomputed %s", c.Total(), want)
			}
		}
	})
}

func names(c *Cart) []string {
	var out []string
	for _, item := range c.Items() {
		out = append(out, item.Name)
	}
	return out
}

func indexOf(c *Cart, name string) (int, bool) {
	for i, item := range c.Items() {
		if item.Name == name {
			return i, true
		}
	}
	return -1, false
}
