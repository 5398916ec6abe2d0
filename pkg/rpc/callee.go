package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/dispatcher"
	"github.com/riverforge/statestream/pkg/entity"
	"github.com/riverforge/statestream/pkg/slog"
	"github.com/riverforge/statestream/pkg/stream"
)

// MethodFunc implements one callable method; args/kwargs are whatever the
// caller passed, decoded generically (the source calls getattr(...)(*args,
// **kwargs) on the live service_provider object, so there is no static
// signature to check against here either).
type MethodFunc func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Callee answers RPC calls addressed to one RPCEndpoint. It is registered
// into a dispatcher.Dispatcher against a request stream via Handler, and
// lazily binds a response stream per distinct resp_topic it has seen.
//
// Grounded on RPCEndPointServiceUnit._on_rpc_call: invoke the method,
// wrap the result (or exception) as an RPCResp, and commit it to a stream
// bound to the request's own resp_topic, created on the fly.
type Callee struct {
	endpoint RPCEndpoint
	conn     broker.Connection
	logger   *slog.Logger

	mu          sync.Mutex
	methods     map[string]MethodFunc
	respStreams map[string]*stream.Stream
}

// NewCallee creates a Callee answering calls addressed to endpoint. conn is
// used to bind response streams to whatever resp_topic incoming requests
// name.
func NewCallee(endpoint RPCEndpoint, conn broker.Connection, logger *slog.Logger) *Callee {
	return &Callee{
		endpoint:    endpoint,
		conn:        conn,
		logger:      logger,
		methods:     make(map[string]MethodFunc),
		respStreams: make(map[string]*stream.Stream),
	}
}

// RegisterMethod makes name callable by remote callers.
func (c *Callee) RegisterMethod(name string, fn MethodFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[name] = fn
}

// Handler adapts the callee into a dispatcher.Handler, subscribable via
// disp.Subscribe(reqStreamName, []string{rpc.ReqVar}, callee.Handler()).
// There is only ever one triggering variable, so PickOne's first-present
// rule and the spec's literal wording agree here.
func (c *Callee) Handler() dispatcher.Handler {
	return dispatcher.PickOne(c.handleReq)
}

func (c *Callee) handleReq(ctx context.Context, ownerPK interface{}, varName string, value stream.Value) ([]dispatcher.Committer, error) {
	var req RPCReq
	if err := value.Decode(&req); err != nil {
		return nil, fmt.Errorf("rpc: callee: decode request: %w", err)
	}

	// Ignore calls not addressed to this callee: many RPCReqMessage
	// records may flow through the same shared request topic.
	if !req.Endpoint.Equal(c.endpoint) {
		return nil, nil
	}

	c.mu.Lock()
	method, ok := c.methods[req.Method]
	c.mu.Unlock()

	var resp RPCResp
	if !ok {
		resp = RPCResp{CallUUID: req.CallUUID, RetErr: fmt.Sprintf("rpc: no method %q registered", req.Method)}
	} else if ret, err := method(ctx, req.Args, req.Kwargs); err != nil {
		resp = RPCResp{CallUUID: req.CallUUID, RetErr: err.Error()}
	} else {
		resp = RPCResp{CallUUID: req.CallUUID, RetVal: ret}
	}

	respStream, err := c.respStreamFor(ctx, req.RespTopic)
	if err != nil {
		return nil, err
	}

	inst := entity.New(req.Endpoint.pkValue(), RespSchema, respStream, nil)
	inst.Var(RespVar).Set(resp)
	return []dispatcher.Committer{inst}, nil
}

func (c *Callee) respStreamFor(ctx context.Context, topic string) (*stream.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.respStreams[topic]; ok {
		return s, nil
	}
	s := stream.Bind(topic, 1)
	if err := s.Initialize(ctx, c.conn, ""); err != nil {
		return nil, fmt.Errorf("rpc: callee: bind response stream %q: %w", topic, err)
	}
	c.respStreams[topic] = s
	return s, nil
}
