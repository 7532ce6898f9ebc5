// Package api is the boundary API of spec.md §6: operation dispatch,
// argument validation and result shape, layered over the registry package and
// the root sortedset package. It is the one piece of this repository analogous to
// the teacher's request-response.go / err.go boundary, minus the actual
// network transport (see DESIGN.md: the teacher's fasthttp/jsonrpc2 server
// is a binding to a host runtime, explicitly out of spec.md's scope).
package api

import (
	"fmt"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/rpcpool/sortedset/registry"
)

// Application error codes, taken from the -32000..-32099 band that JSON-RPC
// leaves to implementation-defined server errors, so they never collide with
// the protocol's own predefined codes (-32700, -32600..-32603).
const (
	CodeBadReference          jsonrpc2.ErrorCode = -32000
	CodeLockFail              jsonrpc2.ErrorCode = -32001
	CodeUnsupportedType       jsonrpc2.ErrorCode = -32002
	CodeMaxBucketSizeExceeded jsonrpc2.ErrorCode = -32003
	// CodeInvalidConfig guards the constructor preconditions of spec.md §6.1
	// (capacity >= 1, bucket_size >= 2), distinct from UnsupportedType, which
	// is reserved for inadmissible term leaves.
	CodeInvalidConfig jsonrpc2.ErrorCode = -32004
)

// OpError is the boundary API's error taxonomy (spec.md §7), wrapping a
// jsonrpc2.Error so any caller sitting behind an RPC-shaped boundary gets a
// stable numeric code for free. The wrapped error is held under a named
// field rather than embedded: jsonrpc2.Error itself declares an Error()
// method, and an embedded field named Error would shadow that promoted
// method at depth 0, leaving *OpError without an Error() method at all.
type OpError struct {
	Err *jsonrpc2.Error
}

func (e *OpError) Error() string { return e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func newOpError(code jsonrpc2.ErrorCode, format string, args ...any) *OpError {
	return &OpError{Err: &jsonrpc2.Error{Code: code, Message: fmt.Sprintf(format, args...)}}
}

func errBadReference(h registry.Handle) *OpError {
	return newOpError(CodeBadReference, "handle %d does not resolve to a live container", h)
}

func errLockFail(h registry.Handle) *OpError {
	return newOpError(CodeLockFail, "handle %d: lock contended, retry", h)
}

func errUnsupportedType(err error) *OpError {
	return newOpError(CodeUnsupportedType, "unsupported term type: %v", err)
}

func errMaxBucketSizeExceeded(err error) *OpError {
	return newOpError(CodeMaxBucketSizeExceeded, "%v", err)
}

func errInvalidConfig(err error) *OpError {
	return newOpError(CodeInvalidConfig, "%v", err)
}

// IsBadReference reports whether err is an OpError carrying CodeBadReference.
func IsBadReference(err error) bool { return hasCode(err, CodeBadReference) }

// IsLockFail reports whether err is an OpError carrying CodeLockFail.
func IsLockFail(err error) bool { return hasCode(err, CodeLockFail) }

// IsUnsupportedType reports whether err is an OpError carrying CodeUnsupportedType.
func IsUnsupportedType(err error) bool { return hasCode(err, CodeUnsupportedType) }

// IsMaxBucketSizeExceeded reports whether err is an OpError carrying
// CodeMaxBucketSizeExceeded.
func IsMaxBucketSizeExceeded(err error) bool { return hasCode(err, CodeMaxBucketSizeExceeded) }

// IsInvalidConfig reports whether err is an OpError carrying CodeInvalidConfig.
func IsInvalidConfig(err error) bool { return hasCode(err, CodeInvalidConfig) }

func hasCode(err error, code jsonrpc2.ErrorCode) bool {
	oe, ok := err.(*OpError)
	return ok && oe.Err != nil && oe.Err.Code == code
}
