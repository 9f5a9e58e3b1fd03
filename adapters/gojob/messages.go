package gojob

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-tradeguard/core"
)

const (
	JobIDEnsureApprovals = "tradeguard.approvals.ensure"

	ParamOperation = "operation"
	ParamArgs      = "args"
	ParamNamed     = "named"
)

// ErrMalformedMessage marks deliveries that can never be processed.
var ErrMalformedMessage = errors.New("gojob: malformed approval message")

// ApprovalRequest asks a worker to run the version gate and approvals of an
// operation ahead of the trade itself. Args holds the token of each
// positional slot; the zero address leaves the slot empty so the named
// argument is used.
type ApprovalRequest struct {
	Operation      string
	Args           []common.Address
	Named          map[string]common.Address
	IdempotencyKey string
	DedupPolicy    string
}

// Call converts the request into the call the guards resolve tokens from.
func (r ApprovalRequest) Call() core.Call {
	call := core.Call{Operation: strings.TrimSpace(r.Operation)}
	if len(r.Args) > 0 {
		call.Args = make([]any, 0, len(r.Args))
		for _, token := range r.Args {
			if core.IsNative(token) {
				call.Args = append(call.Args, nil)
				continue
			}
			call.Args = append(call.Args, token)
		}
	}
	if len(r.Named) > 0 {
		call.Named = make(map[string]any, len(r.Named))
		for key, token := range r.Named {
			call.Named[strings.TrimSpace(key)] = token
		}
	}
	return call
}

// Key returns the idempotency key, derived from the operation and tokens
// when none was set.
func (r ApprovalRequest) Key() string {
	if key := strings.TrimSpace(r.IdempotencyKey); key != "" {
		return key
	}
	parts := []string{strings.TrimSpace(r.Operation)}
	for _, token := range r.Args {
		parts = append(parts, strings.ToLower(token.Hex()))
	}
	names := make([]string, 0, len(r.Named))
	for name := range r.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, strings.TrimSpace(name)+"="+strings.ToLower(r.Named[name].Hex()))
	}
	return strings.Join(parts, ":")
}

// ToExecutionMessage maps an approval request to a go-job message. Tokens are
// carried as hex strings.
func ToExecutionMessage(req ApprovalRequest) (*job.ExecutionMessage, error) {
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		return nil, fmt.Errorf("%w: operation is required", ErrMalformedMessage)
	}
	args := make([]string, 0, len(req.Args))
	for _, token := range req.Args {
		if core.IsNative(token) {
			args = append(args, "")
			continue
		}
		args = append(args, token.Hex())
	}
	named := make(map[string]string, len(req.Named))
	for key, token := range req.Named {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: named token keys must not be empty", ErrMalformedMessage)
		}
		named[key] = token.Hex()
	}
	return &job.ExecutionMessage{
		JobID:      JobIDEnsureApprovals,
		ScriptPath: JobIDEnsureApprovals,
		Parameters: map[string]any{
			ParamOperation: operation,
			ParamArgs:      args,
			ParamNamed:     named,
		},
		IdempotencyKey: req.Key(),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(req.DedupPolicy)),
	}, nil
}

// FromExecutionMessage decodes an approval request. The parameters may hold
// typed slices and maps or their JSON decoded forms.
func FromExecutionMessage(msg *job.ExecutionMessage) (ApprovalRequest, error) {
	if msg == nil {
		return ApprovalRequest{}, fmt.Errorf("%w: message is nil", ErrMalformedMessage)
	}
	if jobID := strings.TrimSpace(msg.JobID); jobID != JobIDEnsureApprovals {
		return ApprovalRequest{}, fmt.Errorf("%w: unexpected job id %q", ErrMalformedMessage, jobID)
	}
	operation, _ := msg.Parameters[ParamOperation].(string)
	operation = strings.TrimSpace(operation)
	if operation == "" {
		return ApprovalRequest{}, fmt.Errorf("%w: operation is required", ErrMalformedMessage)
	}

	rawArgs, err := stringSlice(msg.Parameters[ParamArgs])
	if err != nil {
		return ApprovalRequest{}, err
	}
	args := make([]common.Address, 0, len(rawArgs))
	for i, raw := range rawArgs {
		token, err := parseToken(raw)
		if err != nil {
			return ApprovalRequest{}, fmt.Errorf("%w: args[%d]: %v", ErrMalformedMessage, i, err)
		}
		args = append(args, token)
	}

	rawNamed, err := stringMap(msg.Parameters[ParamNamed])
	if err != nil {
		return ApprovalRequest{}, err
	}
	var named map[string]common.Address
	if len(rawNamed) > 0 {
		named = make(map[string]common.Address, len(rawNamed))
		for key, raw := range rawNamed {
			token, err := parseToken(raw)
			if err != nil {
				return ApprovalRequest{}, fmt.Errorf("%w: named[%s]: %v", ErrMalformedMessage, key, err)
			}
			named[key] = token
		}
	}

	return ApprovalRequest{
		Operation:      operation,
		Args:           args,
		Named:          named,
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}, nil
}

func parseToken(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.NativeToken, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid token address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func stringSlice(value any) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), typed...), nil
	case []any:
		out := make([]string, 0, len(typed))
		for i, item := range typed {
			if item == nil {
				out = append(out, "")
				continue
			}
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: args[%d] must be a hex string, got %T", ErrMalformedMessage, i, item)
			}
			out = append(out, text)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: args must be a list, got %T", ErrMalformedMessage, value)
	}
}

func stringMap(value any) (map[string]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		out := make(map[string]string, len(typed))
		for key, item := range typed {
			out[strings.TrimSpace(key)] = item
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(typed))
		for key, item := range typed {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: named[%s] must be a hex string, got %T", ErrMalformedMessage, key, item)
			}
			out[strings.TrimSpace(key)] = text
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: named must be a map, got %T", ErrMalformedMessage, value)
	}
}
