// Package customer defines the customer model. Customers are read-only to
// this subsystem and resolved by canonical id or short code.
package customer

import "github.com/xraph/rebate/types"

// Customer is a client organization that books collaborations with talents.
type Customer struct {
	types.Entity
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
