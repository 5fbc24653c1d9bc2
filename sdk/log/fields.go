package shiplog

import (
	"github.com/rockbears/log"
)

const (
	// If you add a field constant, don't forget to add it in the log.RegisterField below
	AppID        = log.Field("app_id")
	PipelineID   = log.Field("pipeline_id")
	Node         = log.Field("node")
	Slot         = log.Field("slot")
	RequestToken = log.Field("request_token")
	Method       = log.Field("method")
	RequestURI   = log.Field("request_uri")
	StatusNum    = log.Field("status_num")
	Duration     = log.Field("duration_milliseconds_num")
	Stacktrace   = log.Field("stack_trace")
)

func init() {
	log.RegisterField(
		AppID,
		PipelineID,
		Node,
		Slot,
		RequestToken,
		Method,
		RequestURI,
		StatusNum,
		Duration,
		Stacktrace,
	)
}
