package core

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeToken is the pseudo-address standing for the chain's native asset.
// It never requires an approval.
var NativeToken = common.HexToAddress("0x0000000000000000000000000000000000000000")

const (
	OperationMakeTrade       = "make_trade"
	OperationMakeTradeOutput = "make_trade_output"

	InputTokenArg  = "input_token"
	OutputTokenArg = "output_token"
)

// TwoSidedOperations spend both an input and an output token.
var TwoSidedOperations = []string{OperationMakeTrade, OperationMakeTradeOutput}

// TokenSlot names where a spent token is read from: the positional argument
// at Position, falling back to the named argument Name.
type TokenSlot struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

var (
	inputTokenSlot  = TokenSlot{Position: 0, Name: InputTokenArg}
	outputTokenSlot = TokenSlot{Position: 1, Name: OutputTokenArg}
)

// TokenSlotsFor returns the static token slot table for an operation.
func TokenSlotsFor(operation string) []TokenSlot {
	if IsTwoSidedOperation(operation) {
		return []TokenSlot{inputTokenSlot, outputTokenSlot}
	}
	return []TokenSlot{inputTokenSlot}
}

func IsTwoSidedOperation(operation string) bool {
	operation = strings.TrimSpace(operation)
	for _, name := range TwoSidedOperations {
		if name == operation {
			return true
		}
	}
	return false
}

// IsNative reports whether token is the native asset sentinel.
func IsNative(token common.Address) bool {
	return token == NativeToken
}

// Resolve reads the slot from the call. A positional value equal to the
// native sentinel falls through to the named argument. ok is false when no
// token applies to the slot.
func (s TokenSlot) Resolve(call Call) (token common.Address, ok bool, err error) {
	if value, present := call.Arg(s.Position); present {
		token, ok, err = tokenFromArg(value)
		if err != nil {
			return common.Address{}, false, s.argError(fmt.Sprintf("argument %d", s.Position), value, err)
		}
		if ok && !IsNative(token) {
			return token, true, nil
		}
	}

	value, present := call.NamedArg(s.Name)
	if !present {
		return common.Address{}, false, nil
	}
	token, ok, err = tokenFromArg(value)
	if err != nil {
		return common.Address{}, false, s.argError(fmt.Sprintf("argument %q", s.Name), value, err)
	}
	if !ok || IsNative(token) {
		return common.Address{}, false, nil
	}
	return token, true, nil
}

func (s TokenSlot) argError(label string, value any, cause error) error {
	return newInvalidTokenArgumentError(
		fmt.Sprintf("core: %s is not a token reference: %v", label, cause),
		map[string]any{"position": s.Position, "name": s.Name, "value_type": fmt.Sprintf("%T", value)},
	)
}

func tokenFromArg(value any) (common.Address, bool, error) {
	switch typed := value.(type) {
	case nil:
		return common.Address{}, false, nil
	case common.Address:
		return typed, true, nil
	case *common.Address:
		if typed == nil {
			return common.Address{}, false, nil
		}
		return *typed, true, nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return common.Address{}, false, nil
		}
		if !common.IsHexAddress(trimmed) {
			return common.Address{}, false, fmt.Errorf("invalid hex address %q", trimmed)
		}
		return common.HexToAddress(trimmed), true, nil
	default:
		return common.Address{}, false, fmt.Errorf("unsupported type %T", value)
	}
}

func normalizeTokenSlots(slots []TokenSlot) []TokenSlot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]TokenSlot, 0, len(slots))
	for _, slot := range slots {
		slot.Name = strings.TrimSpace(slot.Name)
		out = append(out, slot)
	}
	return out
}
