package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestApprovalGuard_ApprovesPositionalTokenBeforeDelegating(t *testing.T) {
	client := newRecordingClient(1)
	guard := NewApprovalGuard()
	op := Chain(recordingOperation("tx-1"), guard)

	result, err := op(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Args:      []any{tokenA, 100},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "tx-1" {
		t.Fatalf("expected operation result unchanged, got %v", result)
	}
	want := []string{
		"is_approved:" + tokenA.Hex(),
		"approve:" + tokenA.Hex(),
		"op:" + OperationAddLiquidity,
	}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("unexpected call order: got %v want %v", got, want)
	}
}

func TestApprovalGuard_NamedTokenAlreadyApproved(t *testing.T) {
	client := newRecordingClient(1, tokenA)
	op := Chain(recordingOperation("ok"), NewApprovalGuard())

	if _, err := op(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Named:     map[string]any{InputTokenArg: tokenA},
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := client.countPrefix("is_approved:"); got != 1 {
		t.Fatalf("expected one approval query, got %d", got)
	}
	if got := client.countPrefix("approve:"); got != 0 {
		t.Fatalf("expected no approval submission, got %d", got)
	}
	if got := client.countPrefix("op:"); got != 1 {
		t.Fatalf("expected operation to run once, got %d", got)
	}
}

func TestApprovalGuard_TwoSidedTradeApprovesBothTokens(t *testing.T) {
	client := newRecordingClient(2)
	op := Chain(recordingOperation(nil), NewApprovalGuard())

	if _, err := op(context.Background(), client, Call{
		Operation: OperationMakeTrade,
		Args:      []any{tokenA, tokenB, 1000},
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	want := []string{
		"is_approved:" + tokenA.Hex(),
		"approve:" + tokenA.Hex(),
		"is_approved:" + tokenB.Hex(),
		"approve:" + tokenB.Hex(),
		"op:" + OperationMakeTrade,
	}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("unexpected call order: got %v want %v", got, want)
	}
}

func TestApprovalGuard_NativeInputWithoutNamedTokenSkipsApproval(t *testing.T) {
	client := newRecordingClient(1)
	op := Chain(recordingOperation("eth"), NewApprovalGuard())

	result, err := op(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Args:      []any{NativeToken, 50},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "eth" {
		t.Fatalf("unexpected result %v", result)
	}
	want := []string{"op:" + OperationAddLiquidity}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("expected no approval calls, got %v", got)
	}
}

func TestApprovalGuard_NativeTokenNeverQueriedOnEitherSide(t *testing.T) {
	client := newRecordingClient(1)
	op := Chain(recordingOperation(nil), NewApprovalGuard())

	if _, err := op(context.Background(), client, Call{
		Operation: OperationMakeTradeOutput,
		Args:      []any{NativeToken, tokenB, 10},
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	want := []string{
		"is_approved:" + tokenB.Hex(),
		"approve:" + tokenB.Hex(),
		"op:" + OperationMakeTradeOutput,
	}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("unexpected calls: got %v want %v", got, want)
	}

	client = newRecordingClient(1)
	if _, err := op(context.Background(), client, Call{
		Operation: OperationMakeTrade,
		Args:      []any{tokenA, NativeToken, 10},
		Named:     map[string]any{OutputTokenArg: NativeToken},
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	for _, call := range client.snapshot() {
		if call == "is_approved:"+NativeToken.Hex() || call == "approve:"+NativeToken.Hex() {
			t.Fatalf("native token must never be queried, got %v", client.snapshot())
		}
	}
}

func TestApprovalGuard_PositionalNativeFallsBackToNamedToken(t *testing.T) {
	client := newRecordingClient(1)
	guard := NewApprovalGuard()

	if err := guard.Ensure(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Args:      []any{NativeToken},
		Named:     map[string]any{InputTokenArg: tokenC.Hex()},
	}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	want := []string{"is_approved:" + tokenC.Hex(), "approve:" + tokenC.Hex()}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("unexpected calls: got %v want %v", got, want)
	}
}

func TestApprovalGuard_SingleSidedOperationIgnoresSecondToken(t *testing.T) {
	client := newRecordingClient(1)
	op := Chain(recordingOperation(nil), NewApprovalGuard())

	if _, err := op(context.Background(), client, Call{
		Operation: OperationAddLiquidity,
		Args:      []any{tokenA, tokenB},
		Named:     map[string]any{OutputTokenArg: tokenC},
	}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := client.countPrefix("is_approved:"); got != 1 {
		t.Fatalf("expected only the first slot to be checked, got %v", client.snapshot())
	}
}

func TestApprovalGuard_ApprovalIsRequeriedOnEveryCall(t *testing.T) {
	client := newRecordingClient(1, tokenA)
	op := Chain(recordingOperation(nil), NewApprovalGuard())
	call := Call{Operation: OperationAddLiquidity, Args: []any{tokenA}}

	for range 3 {
		if _, err := op(context.Background(), client, call); err != nil {
			t.Fatalf("invoke: %v", err)
		}
	}
	if got := client.countPrefix("is_approved:"); got != 3 {
		t.Fatalf("expected approval status queried per call, got %d", got)
	}
}

func TestApprovalGuard_PropagatesClientErrorsUnchanged(t *testing.T) {
	sentinel := errors.New("rpc unavailable")

	client := newRecordingClient(1)
	client.isApprovedErr = sentinel
	op := Chain(recordingOperation(nil), NewApprovalGuard())
	_, err := op(context.Background(), client, Call{Operation: OperationAddLiquidity, Args: []any{tokenA}})
	if err != sentinel {
		t.Fatalf("expected status query error unchanged, got %v", err)
	}
	if client.countPrefix("op:") != 0 {
		t.Fatalf("operation must not run after approval failure")
	}

	client = newRecordingClient(1)
	client.approveErr = sentinel
	_, err = op(context.Background(), client, Call{Operation: OperationMakeTrade, Args: []any{tokenA, tokenB}})
	if err != sentinel {
		t.Fatalf("expected approval submission error unchanged, got %v", err)
	}
	if got := client.countPrefix("is_approved:"); got != 1 {
		t.Fatalf("expected the second slot to be skipped after failure, got %v", client.snapshot())
	}
	if client.countPrefix("op:") != 0 {
		t.Fatalf("operation must not run after approval failure")
	}
}

func TestApprovalGuard_PropagatesOperationErrorUnchanged(t *testing.T) {
	sentinel := errors.New("slippage exceeded")
	client := newRecordingClient(1, tokenA)
	op := Chain(func(context.Context, Client, Call) (any, error) {
		return nil, sentinel
	}, NewApprovalGuard())

	if _, err := op(context.Background(), client, Call{Operation: OperationAddLiquidity, Args: []any{tokenA}}); err != sentinel {
		t.Fatalf("expected operation error unchanged, got %v", err)
	}
}

func TestApprovalGuard_RejectsNonTokenArgumentBeforeAnyClientCall(t *testing.T) {
	client := newRecordingClient(1)
	guard := NewApprovalGuard()

	err := guard.Ensure(context.Background(), client, Call{
		Operation: OperationMakeTrade,
		Args:      []any{tokenA, 42},
	})
	if err == nil {
		t.Fatalf("expected invalid token argument error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ServiceErrorInvalidTokenArgument {
		t.Fatalf("expected invalid token argument code, got %q", richErr.TextCode)
	}
	if richErr.Metadata["position"] != 1 {
		t.Fatalf("expected position metadata, got %v", richErr.Metadata)
	}
	if calls := client.snapshot(); len(calls) != 0 {
		t.Fatalf("expected no client calls, got %v", calls)
	}
}

func TestApprovalGuard_CustomSlotsAndDescribe(t *testing.T) {
	slots := []TokenSlot{{Position: 2, Name: "fee_token"}}
	guard := NewApprovalGuard(WithTokenSlots(slots...))
	client := newRecordingClient(1)

	if err := guard.Ensure(context.Background(), client, Call{
		Operation: "pay_fee",
		Args:      []any{tokenA, tokenB, tokenC},
	}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	want := []string{"is_approved:" + tokenC.Hex(), "approve:" + tokenC.Hex()}
	if got := client.snapshot(); !equalCalls(got, want) {
		t.Fatalf("unexpected calls: got %v want %v", got, want)
	}

	desc := guard.Describe(OperationDescriptor{Name: "pay_fee"})
	if len(desc.TokenSlots) != 1 || desc.TokenSlots[0].Name != "fee_token" {
		t.Fatalf("expected custom slot in descriptor, got %+v", desc.TokenSlots)
	}
}

func TestApprovalGuard_NotifiesObserver(t *testing.T) {
	observer := &recordingObserver{}
	guard := NewApprovalGuard(WithApprovalObserver(observer))
	client := newRecordingClient(1, tokenA)

	if err := guard.Ensure(context.Background(), client, Call{
		Operation: OperationMakeTrade,
		Args:      []any{tokenA, tokenB},
	}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	events := observer.snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 observed events, got %+v", events)
	}
	if events[0].kind != "checked" || !events[0].approved || events[0].token != tokenA {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].kind != "checked" || events[1].approved || events[1].token != tokenB {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if events[2].kind != "submitted" || events[2].token != tokenB || events[2].err != nil {
		t.Fatalf("unexpected third event %+v", events[2])
	}
}
