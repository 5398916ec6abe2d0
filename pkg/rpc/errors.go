package rpc

import "fmt"

// RPCRemoteError is returned when a callee's method ran and raised, and
// RetErr carries the string its handler returned -- the Go side of the
// source's RPCResp.ret_err, which a caller only ever sees re-raised as a
// plain Exception(ret_err).
type RPCRemoteError struct {
	Method string
	RetErr string
}

func (e *RPCRemoteError) Error() string {
	return fmt.Sprintf("rpc: %s: remote error: %s", e.Method, e.RetErr)
}

// RPCTimeout is returned when a Call's response didn't arrive within its
// deadline, matching asyncio.wait_for's TimeoutError in RPCMethodStub.
type RPCTimeout struct {
	Method   string
	Endpoint RPCEndpoint
	Timeout  string
}

func (e *RPCTimeout) Error() string {
	return fmt.Sprintf("rpc: call %q to %s: timed out after %s", e.Method, e.Endpoint, e.Timeout)
}
