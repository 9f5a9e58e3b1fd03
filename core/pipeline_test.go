package core

import (
	"context"
	"testing"
)

type tracingGuard struct {
	name  string
	trace *[]string
}

func (g tracingGuard) Name() string { return g.name }

func (g tracingGuard) Invoke(ctx context.Context, client Client, call Call, next Operation) (any, error) {
	*g.trace = append(*g.trace, "enter:"+g.name)
	result, err := next(ctx, client, call)
	*g.trace = append(*g.trace, "exit:"+g.name)
	return result, err
}

func TestChain_FirstGuardIsOutermost(t *testing.T) {
	trace := []string{}
	op := Chain(func(context.Context, Client, Call) (any, error) {
		trace = append(trace, "op")
		return "done", nil
	}, tracingGuard{name: "outer", trace: &trace}, nil, tracingGuard{name: "inner", trace: &trace})

	result, err := op(context.Background(), newRecordingClient(1), Call{Operation: "quote"})
	if err != nil || result != "done" {
		t.Fatalf("unexpected result=%v err=%v", result, err)
	}
	want := []string{"enter:outer", "enter:inner", "op", "exit:inner", "exit:outer"}
	if !equalCalls(trace, want) {
		t.Fatalf("unexpected trace %v", trace)
	}
}

func TestChain_PassesArgumentsUnchanged(t *testing.T) {
	named := map[string]any{"deadline": 30}
	var seen Call
	op := Chain(func(_ context.Context, _ Client, call Call) (any, error) {
		seen = call
		return nil, nil
	}, NewApprovalGuard())

	client := newRecordingClient(1, tokenA)
	if _, err := op(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Args:      []any{tokenA, 5},
		Named:     named,
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(seen.Args) != 2 || seen.Args[0] != tokenA || seen.Args[1] != 5 || seen.Named["deadline"] != 30 {
		t.Fatalf("unexpected call seen by operation %+v", seen)
	}
}

func TestDescriptor_DocumentationWithoutDescription(t *testing.T) {
	desc := OperationDescriptor{Name: "quote", Notes: []string{"Supports Uniswap v1"}}
	if got := desc.Documentation(); got != "Supports Uniswap v1" {
		t.Fatalf("unexpected documentation %q", got)
	}
}
