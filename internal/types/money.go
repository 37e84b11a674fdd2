// README: Common value objects shared across modules.
package types

// Money is an amount in minor currency units (cents). Floating-point
// currency never crosses a module boundary.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
