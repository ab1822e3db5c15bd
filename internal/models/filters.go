package models

import (
	"net/url"
	"strconv"
)

// Filter predicate bounds.
const (
	PriceFloor   = 0.0
	PriceCeiling = 1.0
	PowerFloor   = 2.0
	PowerCeiling = 350.0
)

// Filters is the active station filter predicate. Nil pointer fields mean
// "no constraint" on that dimension. A price ceiling at PriceCeiling and a
// power range covering [PowerFloor, PowerCeiling] are likewise treated as
// unconstrained. The predicate is replaced wholesale on every change.
type Filters struct {
	Availability *bool          `json:"availability"`
	Connector    *ConnectorType `json:"connector"`
	FastCharging *bool          `json:"fast_charging"`
	MaxPrice     float64        `json:"max_price"`
	MinPower     float64        `json:"min_power"`
	MaxPower     float64        `json:"max_power"`
}

// DefaultFilters returns the fully unconstrained predicate.
func DefaultFilters() Filters {
	return Filters{
		MaxPrice: PriceCeiling,
		MinPower: PowerFloor,
		MaxPower: PowerCeiling,
	}
}

// Clamped returns a copy with range values forced into their legal bounds and
// min <= max. Callers at the UI boundary apply this before the predicate ever
// reaches the filter model.
func (f Filters) Clamped() Filters {
	out := f
	out.MaxPrice = clamp(out.MaxPrice, PriceFloor, PriceCeiling)
	out.MinPower = clamp(out.MinPower, PowerFloor, PowerCeiling)
	out.MaxPower = clamp(out.MaxPower, PowerFloor, PowerCeiling)
	if out.MinPower > out.MaxPower {
		out.MinPower, out.MaxPower = out.MaxPower, out.MinPower
	}
	if out.Connector != nil && !ValidConnectorType(*out.Connector) {
		out.Connector = nil
	}
	return out
}

// QueryValues translates the predicate into query parameters for
// GET /stations. Unconstrained dimensions are omitted entirely; no sentinel
// "all" values are ever sent.
func (f Filters) QueryValues() url.Values {
	params := url.Values{}
	if f.Availability != nil {
		params.Set("availability", strconv.FormatBool(*f.Availability))
	}
	if f.Connector != nil {
		params.Set("connector", string(*f.Connector))
	}
	if f.FastCharging != nil {
		params.Set("fast", strconv.FormatBool(*f.FastCharging))
	}
	if f.MaxPrice < PriceCeiling {
		params.Set("minPrice", formatFloat(PriceFloor))
		params.Set("maxPrice", formatFloat(f.MaxPrice))
	}
	if f.MinPower > PowerFloor || f.MaxPower < PowerCeiling {
		params.Set("minCap", formatFloat(f.MinPower))
		params.Set("maxCap", formatFloat(f.MaxPower))
	}
	return params
}

// CacheKey returns the canonical identity of the predicate. url.Values.Encode
// sorts parameter names, so two predicates with equal field values always
// produce the same key.
func (f Filters) CacheKey() string {
	return f.QueryValues().Encode()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
