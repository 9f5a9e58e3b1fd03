package core

import (
	"sort"
	"strings"
)

const (
	OperationAddLiquidity    = "add_liquidity"
	OperationRemoveLiquidity = "remove_liquidity"
	OperationGetPriceInput   = "get_price_input"
	OperationGetPriceOutput  = "get_price_output"
	OperationGetExchange     = "get_exchange_address"
	OperationGetPoolInstance = "get_pool_instance"
)

// OperationSpec is the guard table entry of a known client operation.
type OperationSpec struct {
	Name            string
	Description     string
	Versions        []int
	EnsureApprovals bool
}

// DefaultOperationSpecs lists the exchange client operations this module
// knows how to guard.
var DefaultOperationSpecs = []OperationSpec{
	{
		Name:            OperationMakeTrade,
		Description:     "Make a trade by defining the qty of the input token.",
		Versions:        []int{1, 2, 3},
		EnsureApprovals: true,
	},
	{
		Name:            OperationMakeTradeOutput,
		Description:     "Make a trade by defining the qty of the output token.",
		Versions:        []int{1, 2, 3},
		EnsureApprovals: true,
	},
	{
		Name:            OperationAddLiquidity,
		Description:     "Add liquidity to the token exchange pool.",
		Versions:        []int{1},
		EnsureApprovals: true,
	},
	{
		Name:        OperationRemoveLiquidity,
		Description: "Remove liquidity from the token exchange pool.",
		Versions:    []int{1},
	},
	{
		Name:        OperationGetPriceInput,
		Description: "Price of the output token for a given quantity of the input token.",
		Versions:    []int{1, 2, 3},
	},
	{
		Name:        OperationGetPriceOutput,
		Description: "Price of the input token needed for a given quantity of the output token.",
		Versions:    []int{1, 2, 3},
	},
	{
		Name:        OperationGetExchange,
		Description: "Exchange contract address for a token.",
		Versions:    []int{1},
	},
	{
		Name:        OperationGetPoolInstance,
		Description: "Pool contract for a token pair and fee tier.",
		Versions:    []int{3},
	},
}

// LookupOperationSpec finds a default spec by operation name.
func LookupOperationSpec(name string) (OperationSpec, bool) {
	name = strings.TrimSpace(name)
	for _, spec := range DefaultOperationSpecs {
		if spec.Name == name {
			spec.Versions = append([]int(nil), spec.Versions...)
			return spec, true
		}
	}
	return OperationSpec{}, false
}

// Registration binds op to its default guard table entry.
func (s OperationSpec) Registration(op Operation) Registration {
	return Registration{
		Descriptor: OperationDescriptor{
			Name:        s.Name,
			Description: s.Description,
		},
		Operation:       op,
		Versions:        append([]int(nil), s.Versions...),
		EnsureApprovals: s.EnsureApprovals,
	}
}

// DefaultRegistrations binds the given operation functions to their default
// specs. Names without a default spec are registered ungated.
func DefaultRegistrations(ops map[string]Operation) []Registration {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Registration, 0, len(names))
	for _, name := range names {
		spec, ok := LookupOperationSpec(name)
		if !ok {
			spec = OperationSpec{Name: name}
		}
		out = append(out, spec.Registration(ops[name]))
	}
	return out
}
