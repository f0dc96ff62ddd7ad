package domain

import "encoding/json"

// Metric is a tri-state numeric value: defined, or undefined because the
// underlying window had no data (or a ratio had a zero denominator).
// Undefined is distinct from zero; comparison helpers never match on an
// undefined operand, so rule tables fall through to their explicit
// branches instead of silently scoring missing data as zero.
type Metric struct {
	Value float64
	Valid bool
}

func Defined(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

func Undefined() Metric {
	return Metric{}
}

func (m Metric) LT(v float64) bool  { return m.Valid && m.Value < v }
func (m Metric) LTE(v float64) bool { return m.Valid && m.Value <= v }
func (m Metric) GT(v float64) bool  { return m.Valid && m.Value > v }
func (m Metric) GTE(v float64) bool { return m.Valid && m.Value >= v }
func (m Metric) EQ(v float64) bool  { return m.Valid && m.Value == v }

// Ratio divides num by den, propagating undefined operands and zero
// denominators as undefined rather than Inf or NaN.
func Ratio(num, den Metric) Metric {
	if !num.Valid || !den.Valid || den.Value == 0 {
		return Undefined()
	}
	return Defined(num.Value / den.Value)
}

// PctChange returns the percent change from prev to cur, undefined when
// either operand is undefined or prev is zero.
func PctChange(cur, prev Metric) Metric {
	if !cur.Valid || !prev.Valid || prev.Value == 0 {
		return Undefined()
	}
	return Defined((cur.Value - prev.Value) / prev.Value * 100)
}

// MarshalJSON renders undefined metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts null as undefined.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}
