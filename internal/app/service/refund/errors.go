package refund

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerNotFound means no gateway customer is linked to the user.
	ErrCustomerNotFound = errors.New("no billing customer found for user")
	// ErrNoChargesFound means the customer has never been charged.
	ErrNoChargesFound = errors.New("no charges found for customer")
	// ErrAlreadyRefunded is the primary defense against double-refunding:
	// the latest charge is re-queried fresh at the start of every execution.
	ErrAlreadyRefunded = errors.New("latest charge is already refunded")
)

// GatewayError carries the payments provider's error code and message.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}
