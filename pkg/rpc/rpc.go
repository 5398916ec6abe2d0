// Package rpc implements the RPC layer of spec §4.9: request/response
// message passing that rides the same entity/stream/commit pipeline as
// ordinary state, rather than a separate transport.
//
// Grounded on gs_framework/stream_rpc.py: RPCReqMessage/RPCRespMessage are
// plain State subclasses with one StateVariable each (req, resp), an
// RPCEndPoint identifies either a specific instance (by pk) or a whole
// class of service, and correlation is a caller-assigned call_uuid carried
// on every request/response pair. A call's response topic is sent inside
// the request itself (resp_topic) rather than inferred, since the callee
// has no other way to find the caller's stream.
package rpc

import "fmt"

// RPCEndpoint identifies either one specific service instance (by its
// primary key) or an entire class of stateless service, matching
// RPCEndPoint's two constructor branches (an object with a .pk, or a
// class).
type RPCEndpoint struct {
	PK        interface{}
	ClassName string
}

// NewInstanceEndpoint addresses one specific instance identified by pk.
func NewInstanceEndpoint(pk interface{}) RPCEndpoint {
	return RPCEndpoint{PK: pk}
}

// NewClassEndpoint addresses any instance of a stateless service named
// className (the source's "service_provider is a type" branch).
func NewClassEndpoint(className string) RPCEndpoint {
	return RPCEndpoint{ClassName: className}
}

// Equal reports whether two endpoints address the same target, matching
// RPCEndPoint.__eq__'s (pk, cls_full_name) comparison.
func (e RPCEndpoint) Equal(other RPCEndpoint) bool {
	return e.PK == other.PK && e.ClassName == other.ClassName
}

// pkValue is what an entity.Instance carrying a message addressed to e is
// keyed by: the instance pk when addressing one instance, or the class
// name when addressing a whole service class (there being no pk in that
// case). Grounded on create_stateful_object(rpc_req.endpoint, ...), which
// uses the endpoint itself as the new message object's pk.
func (e RPCEndpoint) pkValue() interface{} {
	if e.PK != nil {
		return e.PK
	}
	return e.ClassName
}

func (e RPCEndpoint) String() string {
	if e.ClassName != "" {
		return e.ClassName
	}
	return fmt.Sprintf("%v", e.PK)
}

// RPCReq is one call's request payload, matching RPCReq's fields exactly
// except resp_topic, which is a bare topic name here rather than a
// faust.types.TP (Go's broker abstraction has no separate partition
// assignment to carry).
type RPCReq struct {
	CallUUID  string
	Endpoint  RPCEndpoint
	RespTopic string
	Method    string
	Args      []interface{}
	Kwargs    map[string]interface{}
}

// RPCResp is one call's response payload: either RetVal or RetErr is set,
// matching RPCResp.
type RPCResp struct {
	CallUUID string
	RetVal   interface{}
	RetErr   string
}

// Stub is what a caller needs to address a call at a callee: the topic the
// callee's request stream is bound to, and which endpoint on it to
// address. Matches RPCStubData.
type Stub struct {
	Topic    string
	Endpoint RPCEndpoint
}
