package rebate

import (
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// Resolved is the outcome of rate resolution: the effective rate and where
// it came from.
type Resolved struct {
	Rate   types.Rate    `json:"rate"`
	Source talent.Source `json:"source"`
}

// Resolve computes the effective rebate rate for a talent, optionally in the
// context of a customer override. Precedence, highest first:
//
//  1. enabled customer override on the relation
//  2. the talent's current rebate, whatever its source
//  3. zero, when nothing is configured
//
// A disabled override is ignored entirely; it keeps its stored rate for
// re-enable but never wins resolution.
func Resolve(t *talent.Talent, override *relation.CustomerRebate) Resolved {
	if override != nil && override.Enabled {
		return Resolved{Rate: override.Rate, Source: talent.SourceCustomer}
	}
	if t != nil && t.CurrentRebate != nil {
		return Resolved{Rate: t.CurrentRebate.Rate, Source: t.CurrentRebate.Source}
	}
	return Resolved{Rate: 0, Source: talent.SourceDefault}
}
