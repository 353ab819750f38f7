// Package rpc routes remote calls to entity handlers and enforces the
// delivery policy of each callee in one place.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Policy decides on which peer a call may run. It belongs to the callee.
type Policy int

const (
	// Master calls run only on the peer that owns the target.
	Master Policy = iota
	// Remote calls run on any peer that receives them.
	Remote
	// Puppet calls mirror owner state: they run only on non-owners and only
	// when the caller is the owner.
	Puppet
)

func (p Policy) String() string {
	switch p {
	case Master:
		return "master"
	case Remote:
		return "remote"
	case Puppet:
		return "puppet"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrUnknownMethod = errors.New("unknown method")
	ErrNotOwner      = errors.New("receiver does not own target")
	ErrNotFromOwner  = errors.New("caller does not own target")
	ErrOwnerReceiver = errors.New("owner does not apply puppet calls")
)

// Target is anything a call can be addressed to.
type Target interface {
	NodePath() string
	Owner() int
}

// Call is one invocation, local or received from a peer.
type Call struct {
	From   int
	Path   string
	Method string
	Args   json.RawMessage
}

// Decode unmarshals the call arguments into v.
func (c Call) Decode(v any) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("%s.%s: missing arguments", c.Path, c.Method)
	}
	if err := json.Unmarshal(c.Args, v); err != nil {
		return fmt.Errorf("%s.%s: decode arguments: %w", c.Path, c.Method, err)
	}
	return nil
}

// EncodeArgs marshals call arguments. A nil payload yields no arguments.
func EncodeArgs(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}

// HandlerFunc runs a call against its resolved target.
type HandlerFunc func(call Call, target Target) error

type method struct {
	policy  Policy
	handler HandlerFunc
}

// Dispatcher holds the method table of every node kind.
type Dispatcher struct {
	local   func() int
	resolve func(path string) (Target, bool)
	methods map[string]method
}

// NewDispatcher creates a dispatcher. local returns the executing peer id and
// resolve looks up a node by path.
func NewDispatcher(local func() int, resolve func(path string) (Target, bool)) *Dispatcher {
	return &Dispatcher{
		local:   local,
		resolve: resolve,
		methods: make(map[string]method),
	}
}

// Register adds a method for every node of the given kind. The kind is the
// first segment of a node path ("players" for "players/2").
func (d *Dispatcher) Register(kind, name string, policy Policy, h HandlerFunc) {
	d.methods[kind+"."+name] = method{policy: policy, handler: h}
}

// Policy returns the policy registered for a method on a path.
func (d *Dispatcher) Policy(path, name string) (Policy, bool) {
	m, ok := d.methods[Kind(path)+"."+name]
	return m.policy, ok
}

// Dispatch authorizes and runs a call.
func (d *Dispatcher) Dispatch(call Call) error {
	m, ok := d.methods[Kind(call.Path)+"."+call.Method]
	if !ok {
		return fmt.Errorf("%s.%s: %w", call.Path, call.Method, ErrUnknownMethod)
	}

	target, ok := d.resolve(call.Path)
	if !ok {
		return fmt.Errorf("%s.%s: %w", call.Path, call.Method, ErrUnknownTarget)
	}

	if err := Authorize(m.policy, d.local(), call.From, target.Owner()); err != nil {
		return fmt.Errorf("%s.%s: %w", call.Path, call.Method, err)
	}

	slog.Debug("rpc dispatch", "path", call.Path, "method", call.Method, "from", call.From, "policy", m.policy.String())
	return m.handler(call, target)
}

// Authorize applies a policy to a call on a peer.
func Authorize(p Policy, local, from, owner int) error {
	switch p {
	case Master:
		if local != owner {
			return ErrNotOwner
		}
	case Puppet:
		if local == owner {
			return ErrOwnerReceiver
		}
		if from != owner {
			return ErrNotFromOwner
		}
	}
	return nil
}

// Kind returns the node kind of a path.
func Kind(path string) string {
	kind, _, _ := strings.Cut(path, "/")
	return kind
}
