package forecast

import (
	"fmt"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// Order holds the non-seasonal (p,d,q) terms of an ARIMA model.
type Order struct {
	P int // autoregressive terms
	D int // differencing passes
	Q int // moving-average terms
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Validate rejects negative components.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return tsgoErrors.NewValueError("Order.Validate", fmt.Sprintf("order components must be non-negative, got %s", o))
	}
	return nil
}
