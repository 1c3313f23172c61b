// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/goccy/go-json"
)

// decimalContext is shared by every arithmetic and rounding operation on
// metric values. apd contexts are safe for concurrent use.
var decimalContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// Decimal is an exact metric value. The zero value is 0.
type Decimal struct {
	value apd.Decimal
}

// NewDecimal parses s ("12.5", "-0.3333").
func NewDecimal(s string) (Decimal, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("invalid decimal %q: not finite", s)
	}
	return Decimal{value: d}, nil
}

// MustDecimal is NewDecimal for literals; it panics on bad input.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDecimalFromInt64 returns i as a Decimal.
func NewDecimalFromInt64(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

// String returns the plain (non-exponent) form.
func (d Decimal) String() string {
	return d.value.Text('f')
}

// Fixed4 rounds half-up to four fraction digits: "40" -> "40.0000".
func (d Decimal) Fixed4() string {
	var q apd.Decimal
	if _, err := decimalContext.Quantize(&q, &d.value, -4); err != nil {
		return d.String()
	}
	return q.Text('f')
}

// Float64 converts for plotting. Precision loss is acceptable there.
func (d Decimal) Float64() float64 {
	f, err := d.value.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Sign returns -1, 0 or +1.
func (d Decimal) Sign() int {
	return d.value.Sign()
}

// IsZero reports whether d == 0.
func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

// Cmp compares d and other.
func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// Add returns d + other.
func (d Decimal) Add(other Decimal) Decimal {
	var result apd.Decimal
	if _, err := decimalContext.Add(&result, &d.value, &other.value); err != nil {
		return d
	}
	return Decimal{value: result}
}

// MarshalJSON writes the value as a JSON number.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		*d = Decimal{}
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decimal: %w", err)
		}
		raw = s
	}
	parsed, err := NewDecimal(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. The store selects DECIMAL columns cast to
// VARCHAR so no precision is lost through float64.
func (d *Decimal) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Decimal{}
		return nil
	case string:
		parsed, err := NewDecimal(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case int64:
		*d = NewDecimalFromInt64(v)
		return nil
	case float64:
		var a apd.Decimal
		if _, err := a.SetFloat64(v); err != nil {
			return fmt.Errorf("decimal: %w", err)
		}
		*d = Decimal{value: a}
		return nil
	default:
		return fmt.Errorf("decimal: cannot scan %T", src)
	}
}

// Value implements driver.Valuer.
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}
