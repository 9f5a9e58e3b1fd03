package core

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type recordingClient struct {
	mu            sync.Mutex
	version       int
	approved      map[common.Address]bool
	isApprovedErr error
	approveErr    error
	calls         []string
}

func newRecordingClient(version int, approved ...common.Address) *recordingClient {
	client := &recordingClient{version: version, approved: map[common.Address]bool{}}
	for _, token := range approved {
		client.approved[token] = true
	}
	return client
}

func (c *recordingClient) Version() int { return c.version }

func (c *recordingClient) IsApproved(_ context.Context, token common.Address) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "is_approved:"+token.Hex())
	if c.isApprovedErr != nil {
		return false, c.isApprovedErr
	}
	return c.approved[token], nil
}

func (c *recordingClient) Approve(_ context.Context, token common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "approve:"+token.Hex())
	if c.approveErr != nil {
		return c.approveErr
	}
	c.approved[token] = true
	return nil
}

func (c *recordingClient) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *recordingClient) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *recordingClient) countPrefix(prefix string) int {
	count := 0
	for _, call := range c.snapshot() {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

// recordingOperation logs its own execution on the client it receives.
func recordingOperation(result any) Operation {
	return func(_ context.Context, client Client, call Call) (any, error) {
		if recorder, ok := client.(*recordingClient); ok {
			recorder.record("op:" + call.Operation)
		}
		return result, nil
	}
}

type observedEvent struct {
	kind      string
	operation string
	token     common.Address
	approved  bool
	version   int
	err       error
}

type recordingObserver struct {
	mu     sync.Mutex
	events []observedEvent
}

func (o *recordingObserver) ApprovalChecked(_ context.Context, operation string, token common.Address, approved bool) {
	o.add(observedEvent{kind: "checked", operation: operation, token: token, approved: approved})
}

func (o *recordingObserver) ApprovalSubmitted(_ context.Context, operation string, token common.Address, err error) {
	o.add(observedEvent{kind: "submitted", operation: operation, token: token, err: err})
}

func (o *recordingObserver) VersionRejected(_ context.Context, operation string, version int, _ []int) {
	o.add(observedEvent{kind: "rejected", operation: operation, version: version})
}

func (o *recordingObserver) add(event observedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) snapshot() []observedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observedEvent(nil), o.events...)
}

func equalCalls(got []string, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for idx := range want {
		if got[idx] != want[idx] {
			return false
		}
	}
	return true
}
