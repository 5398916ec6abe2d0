package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/dispatcher"
	"github.com/riverforge/statestream/pkg/entity"
	"github.com/riverforge/statestream/pkg/slog"
	"github.com/riverforge/statestream/pkg/stream"
)

// DefaultTimeout matches RPCMethodStub.__call__'s rpc_timeout_seconds
// default of 24 hours -- effectively "wait for the reply".
const DefaultTimeout = 24 * time.Hour

// Caller issues RPC calls and correlates their responses by call_uuid on a
// response stream it owns. A single Caller may have many in-flight calls
// to many different callees at once.
//
// Grounded on RPCCaller/RPCMethodStub.__call__: generate_result_future
// registers a pending slot before sending the request (so a response that
// races ahead of the send is never possible to miss), and
// asyncio.wait_for's timeout path resolves the future locally and drops
// it, so a response arriving after the deadline has nothing left to
// resolve -- matching this implementation's dropPending.
type Caller struct {
	respStream *stream.Stream
	conn       broker.Connection
	logger     *slog.Logger

	mu         sync.Mutex
	pending    map[string]chan RPCResp
	reqStreams map[string]*stream.Stream
}

// NewCaller creates a Caller whose replies arrive on respStream. The
// caller must also wire respStream's records into a dispatcher.Dispatcher
// and Subscribe(respStream.Name(), []string{rpc.RespVar}, caller.Handler())
// for responses to ever be delivered. conn binds request streams to
// whichever callee topic each Call addresses.
func NewCaller(respStream *stream.Stream, conn broker.Connection, logger *slog.Logger) *Caller {
	return &Caller{
		respStream: respStream,
		conn:       conn,
		logger:     logger,
		pending:    make(map[string]chan RPCResp),
		reqStreams: make(map[string]*stream.Stream),
	}
}

// Handler adapts the caller into a dispatcher.Handler for its response
// stream's RespVar subscription.
func (c *Caller) Handler() dispatcher.Handler {
	return dispatcher.PickOne(c.handleResp)
}

func (c *Caller) handleResp(ctx context.Context, ownerPK interface{}, varName string, value stream.Value) ([]dispatcher.Committer, error) {
	var resp RPCResp
	if err := value.Decode(&resp); err != nil {
		return nil, fmt.Errorf("rpc: caller: decode response: %w", err)
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.CallUUID]
	if ok {
		delete(c.pending, resp.CallUUID)
	}
	c.mu.Unlock()

	// Not found: either someone else's call, or ours but already timed
	// out and dropped (RPCMethodStub's KeyError-swallowing pop).
	if ok {
		ch <- resp
	}
	return nil, nil
}

// Call sends method(args, kwargs) to stub and blocks until the matching
// response arrives, ctx is cancelled, or timeout elapses (timeout <= 0
// uses DefaultTimeout).
func (c *Caller) Call(ctx context.Context, stub Stub, method string, args []interface{}, kwargs map[string]interface{}, timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callUUID := uuid.NewString()
	respCh := make(chan RPCResp, 1)

	c.mu.Lock()
	c.pending[callUUID] = respCh
	c.mu.Unlock()

	reqStream, err := c.reqStreamFor(ctx, stub.Topic)
	if err != nil {
		c.dropPending(callUUID)
		return nil, err
	}

	req := RPCReq{
		CallUUID:  callUUID,
		Endpoint:  stub.Endpoint,
		RespTopic: c.respStream.Name(),
		Method:    method,
		Args:      args,
		Kwargs:    kwargs,
	}

	inst := entity.New(stub.Endpoint.pkValue(), ReqSchema, reqStream, nil)
	inst.Var(ReqVar).Set(req)
	if err := inst.Commit(ctx); err != nil {
		c.dropPending(callUUID)
		return nil, fmt.Errorf("rpc: caller: send request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if resp.RetErr != "" {
			return nil, &RPCRemoteError{Method: method, RetErr: resp.RetErr}
		}
		return resp.RetVal, nil
	case <-timer.C:
		c.dropPending(callUUID)
		return nil, &RPCTimeout{Method: method, Endpoint: stub.Endpoint, Timeout: timeout.String()}
	case <-ctx.Done():
		c.dropPending(callUUID)
		return nil, ctx.Err()
	}
}

func (c *Caller) dropPending(callUUID string) {
	c.mu.Lock()
	delete(c.pending, callUUID)
	c.mu.Unlock()
}

func (c *Caller) reqStreamFor(ctx context.Context, topic string) (*stream.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.reqStreams[topic]; ok {
		return s, nil
	}
	s := stream.Bind(topic, 1)
	if err := s.Initialize(ctx, c.conn, ""); err != nil {
		return nil, fmt.Errorf("rpc: caller: bind request stream %q: %w", topic, err)
	}
	c.reqStreams[topic] = s
	return s, nil
}
