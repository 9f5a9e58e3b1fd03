package core

import (
	"context"
	"strings"
)

// OperationDescriptor is the static metadata of a registered operation.
type OperationDescriptor struct {
	Name              string      `json:"name"`
	Description       string      `json:"description,omitempty"`
	TokenSlots        []TokenSlot `json:"token_slots,omitempty"`
	SupportedVersions []int       `json:"supported_versions,omitempty"`
	Notes             []string    `json:"notes,omitempty"`
	Guards            []string    `json:"guards,omitempty"`
}

// Documentation joins the description with the notes contributed by guards.
func (d OperationDescriptor) Documentation() string {
	parts := make([]string, 0, len(d.Notes)+1)
	if description := strings.TrimSpace(d.Description); description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, d.Notes...)
	return strings.Join(parts, "\n\n")
}

func (d OperationDescriptor) clone() OperationDescriptor {
	d.TokenSlots = append([]TokenSlot(nil), d.TokenSlots...)
	d.SupportedVersions = append([]int(nil), d.SupportedVersions...)
	d.Notes = append([]string(nil), d.Notes...)
	d.Guards = append([]string(nil), d.Guards...)
	return d
}

// Chain wraps op with guards. The first guard is the outermost and runs
// first.
func Chain(op Operation, guards ...Guard) Operation {
	wrapped := op
	for i := len(guards) - 1; i >= 0; i-- {
		guard := guards[i]
		if guard == nil {
			continue
		}
		next := wrapped
		wrapped = func(ctx context.Context, client Client, call Call) (any, error) {
			return guard.Invoke(ctx, client, call, next)
		}
	}
	return wrapped
}

// Describe folds the metadata contributed by guards into desc, outermost
// guard first.
func Describe(desc OperationDescriptor, guards ...Guard) OperationDescriptor {
	out := desc.clone()
	for _, guard := range guards {
		if guard == nil {
			continue
		}
		out.Guards = append(out.Guards, guard.Name())
		if describer, ok := guard.(Describer); ok {
			out = describer.Describe(out)
		}
	}
	return out
}
