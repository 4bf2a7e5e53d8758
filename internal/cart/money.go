package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (paisa/cents).  Totals are summed in
// integers so "10.50"×2 + 5 is exactly 26.00.
type Money int64

// String renders the amount with two fraction digits, e.g. "26.00".
func (m Money) String() string {
	sign := ""
	v := uint64(m)
	if m < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 returns the amount in major units.
func (m Money) Float64() float64 { return float64(m) / 100 }

// MarshalJSON emits the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalJSON accepts a number or a decimal string in major units.
func (m *Money) UnmarshalJSON(b []byte) error {
	var p Price
	if err := p.UnmarshalJSON(b); err != nil {
		return err
	}
	if p.IsZero() {
		*m = 0
		return nil
	}
	v, ok := p.Money()
	if !ok {
		return fmt.Errorf("money: invalid amount %q", string(p))
	}
	*m = v
	return nil
}

// Price is the price snapshot carried by a line item.  The raw decimal text
// is kept as received: catalog responses send numbers while older cart
// documents hold strings such as "10.50", and both must round-trip.
type Price string

// PriceFromMoney formats m as a Price.
func PriceFromMoney(m Money) Price { return Price(m.String()) }

// PriceFromFloat formats f with two fraction digits.
func PriceFromFloat(f float64) Price { return Price(strconv.FormatFloat(f, 'f', 2, 64)) }

// IsZero reports whether no price was supplied.
func (p Price) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Money converts the price to minor units.  ok is false for a missing,
// non-numeric, negative or unrepresentable price, in which case the returned
// amount is 0.
func (p Price) Money() (Money, bool) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	c := math.Round(f * 100)
	if f < 0 || c >= maxMinor {
		return 0, false
	}
	return Money(c), true
}

// maxMinor is 2^63, the first float64 that no longer fits in a Money.
const maxMinor = float64(1 << 63)

// numeric reports whether the price text parses as a number at all.
func (p Price) numeric() bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(string(p)), 64)
	return err == nil
}

// mulQty returns m × q clamped to the Money range.  Callers pass m ≥ 0 and
// q ≥ 1.
func mulQty(m Money, q int) Money {
	if m == 0 || q <= 0 {
		return 0
	}
	if int64(m) > math.MaxInt64/int64(q) {
		return math.MaxInt64
	}
	return m * Money(q)
}

// addMoney returns a + b clamped at the top of the Money range.
func addMoney(a, b Money) Money {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// addQty returns a + b clamped at math.MaxInt.
func addQty(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = Price(n.String())
	}
	return nil
}

// MarshalJSON writes numeric prices as JSON numbers and anything else as a
// string so that malformed input is preserved rather than dropped.
func (p Price) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(p))
}
