package rpc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/broker"
	_ "github.com/riverforge/statestream/pkg/broker/inmemory"
	"github.com/riverforge/statestream/pkg/dispatcher"
	"github.com/riverforge/statestream/pkg/rpc"
	"github.com/riverforge/statestream/pkg/stream"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

type harness struct {
	conn       broker.Connection
	reqStream  *stream.Stream
	respStream *stream.Stream
	caller     *rpc.Caller
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	adapter, err := broker.GetAdapter(streamplatform.InMemory)
	require.NoError(t, err)
	conn, err := adapter.Connect(context.Background(), broker.ConnectionConfig{ID: "rpc-test"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	reqStream := stream.Bind("callee-req", 1)
	require.NoError(t, reqStream.Initialize(context.Background(), conn, "callee-req-consumer"))
	respStream := stream.Bind("caller-resp", 1)
	require.NoError(t, respStream.Initialize(context.Background(), conn, "caller-resp-consumer"))

	return &harness{conn: conn, reqStream: reqStream, respStream: respStream}
}

func (h *harness) startCallee(t *testing.T, endpoint rpc.RPCEndpoint, register func(*rpc.Callee)) {
	t.Helper()
	callee := rpc.NewCallee(endpoint, h.conn, nil)
	register(callee)

	disp := dispatcher.New(nil, nil)
	disp.Subscribe(h.reqStream.Name(), []string{rpc.ReqVar}, callee.Handler())

	require.NoError(t, h.reqStream.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		return disp.Dispatch(ctx, pk, h.reqStream.Name(), changed)
	}))
}

func (h *harness) startCaller(t *testing.T) *rpc.Caller {
	t.Helper()
	caller := rpc.NewCaller(h.respStream, h.conn, nil)

	disp := dispatcher.New(nil, nil)
	disp.Subscribe(h.respStream.Name(), []string{rpc.RespVar}, caller.Handler())

	require.NoError(t, h.respStream.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		return disp.Dispatch(ctx, pk, h.respStream.Name(), changed)
	}))
	return caller
}

func TestCallReturnsMethodResult(t *testing.T) {
	h := newHarness(t)
	endpoint := rpc.NewClassEndpoint("Adder")
	h.startCallee(t, endpoint, func(c *rpc.Callee) {
		c.RegisterMethod("Add", func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			a, b := args[0].(float64), args[1].(float64)
			return a + b, nil
		})
	})
	caller := h.startCaller(t)

	stub := rpc.Stub{Topic: h.reqStream.Name(), Endpoint: endpoint}
	result, err := caller.Call(context.Background(), stub, "Add", []interface{}{2.0, 3.0}, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestCallPropagatesMethodError(t *testing.T) {
	h := newHarness(t)
	endpoint := rpc.NewClassEndpoint("Failer")
	h.startCallee(t, endpoint, func(c *rpc.Callee) {
		c.RegisterMethod("Boom", func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			return nil, assert.AnError
		})
	})
	caller := h.startCaller(t)

	stub := rpc.Stub{Topic: h.reqStream.Name(), Endpoint: endpoint}
	_, err := caller.Call(context.Background(), stub, "Boom", nil, nil, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())

	var rerr *rpc.RPCRemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "Boom", rerr.Method)
}

func TestCallReportsUnregisteredMethod(t *testing.T) {
	h := newHarness(t)
	endpoint := rpc.NewClassEndpoint("Empty")
	h.startCallee(t, endpoint, func(c *rpc.Callee) {})
	caller := h.startCaller(t)

	stub := rpc.Stub{Topic: h.reqStream.Name(), Endpoint: endpoint}
	_, err := caller.Call(context.Background(), stub, "Missing", nil, nil, time.Second)
	require.Error(t, err)
}

func TestCallToWrongEndpointTimesOutAndLaterCallSucceeds(t *testing.T) {
	h := newHarness(t)
	registered := rpc.NewClassEndpoint("Registered")
	h.startCallee(t, registered, func(c *rpc.Callee) {
		c.RegisterMethod("Echo", func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			return args[0], nil
		})
	})
	caller := h.startCaller(t)

	// Addressed to a class no callee in this harness answers for: the
	// request is dispatched but every callee ignores it, so the call must
	// time out rather than hang.
	stub := rpc.Stub{Topic: h.reqStream.Name(), Endpoint: rpc.NewClassEndpoint("NoOneListens")}
	_, err := caller.Call(context.Background(), stub, "Echo", []interface{}{"hi"}, nil, 50*time.Millisecond)
	require.Error(t, err)
	var terr *rpc.RPCTimeout
	require.True(t, errors.As(err, &terr), "expected an *rpc.RPCTimeout, got %T: %v", err, err)
	assert.Equal(t, "Echo", terr.Method)

	// A real call afterward still works -- the dropped pending entry from
	// the timed-out call didn't corrupt the caller's state.
	stub2 := rpc.Stub{Topic: h.reqStream.Name(), Endpoint: registered}
	result, err := caller.Call(context.Background(), stub2, "Echo", []interface{}{"ok"}, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestEndpointEqualityDistinguishesInstanceAndClass(t *testing.T) {
	a := rpc.NewInstanceEndpoint("agent-1")
	b := rpc.NewInstanceEndpoint("agent-1")
	c := rpc.NewInstanceEndpoint("agent-2")
	d := rpc.NewClassEndpoint("agent-1")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
