package rpc

import (
	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/statevar"
)

// ReqSchema and RespSchema are the class-level schemas backing
// RPCReqMessage and RPCRespMessage: one state variable each, carrying the
// whole request/response value as a single field (never compare-on-write,
// since a retried call with an identical payload must still dispatch).
var (
	ReqSchema = schema.New("RPCReqMessage")
	ReqVar    = ReqSchema.Declare("req", statevar.New(
		"RPCReq", RPCReq{}, statevar.CompareOnWrite(false), statevar.Help("rpc request message"),
	)).Name()

	RespSchema = schema.New("RPCRespMessage")
	RespVar    = RespSchema.Declare("resp", statevar.New(
		"RPCResp", RPCResp{}, statevar.CompareOnWrite(false), statevar.Help("rpc response message"),
	)).Name()
)
