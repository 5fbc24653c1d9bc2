package shipclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/shipyard-ci/shipctl/sdk"
)

const (
	labelMethod  = "method"
	labelSuccess = "success"
)

var (
	requestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "shipctl",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "API request duration in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{labelMethod, labelSuccess})
)

type instrumentedClient struct {
	Interface
}

// Instrument records the duration of every API call of c.
func Instrument(c Interface) Interface {
	return &instrumentedClient{c}
}

func observe(method string, err error, begin time.Time) {
	requestDuration.With(
		labelMethod, method,
		labelSuccess, fmt.Sprint(err == nil),
	).Observe(time.Since(begin).Seconds())
}

func (i *instrumentedClient) WorkflowList(ctx context.Context, appID int64) (_ *sdk.WorkflowsResponse, err error) {
	defer func(begin time.Time) { observe("WorkflowList", err, begin) }(time.Now())
	return i.Interface.WorkflowList(ctx, appID)
}

func (i *instrumentedClient) CIPipelineList(ctx context.Context, appID int64) (_ *sdk.CIPipelinesResponse, err error) {
	defer func(begin time.Time) { observe("CIPipelineList", err, begin) }(time.Now())
	return i.Interface.CIPipelineList(ctx, appID)
}

func (i *instrumentedClient) CDPipelineList(ctx context.Context, appID int64) (_ *sdk.CDPipelinesResponse, err error) {
	defer func(begin time.Time) { observe("CDPipelineList", err, begin) }(time.Now())
	return i.Interface.CDPipelineList(ctx, appID)
}

func (i *instrumentedClient) AppMaterialList(ctx context.Context, appID int64) (_ *sdk.AppMaterialsResponse, err error) {
	defer func(begin time.Time) { observe("AppMaterialList", err, begin) }(time.Now())
	return i.Interface.AppMaterialList(ctx, appID)
}

func (i *instrumentedClient) WorkflowStatus(ctx context.Context, appID int64) (_ *sdk.WorkflowStatusResponse, err error) {
	defer func(begin time.Time) { observe("WorkflowStatus", err, begin) }(time.Now())
	return i.Interface.WorkflowStatus(ctx, appID)
}

func (i *instrumentedClient) CIMaterialList(ctx context.Context, ciPipelineID int64) (_ []sdk.CIMaterial, err error) {
	defer func(begin time.Time) { observe("CIMaterialList", err, begin) }(time.Now())
	return i.Interface.CIMaterialList(ctx, ciPipelineID)
}

func (i *instrumentedClient) CIMaterialRefresh(ctx context.Context, gitMaterialID int64) (err error) {
	defer func(begin time.Time) { observe("CIMaterialRefresh", err, begin) }(time.Now())
	return i.Interface.CIMaterialRefresh(ctx, gitMaterialID)
}

func (i *instrumentedClient) CDMaterialList(ctx context.Context, cdPipelineID int64, stage sdk.Stage) (_ []sdk.Artifact, err error) {
	defer func(begin time.Time) { observe("CDMaterialList", err, begin) }(time.Now())
	return i.Interface.CDMaterialList(ctx, cdPipelineID, stage)
}

func (i *instrumentedClient) CDRollbackMaterialList(ctx context.Context, cdPipelineID int64) (_ []sdk.Artifact, err error) {
	defer func(begin time.Time) { observe("CDRollbackMaterialList", err, begin) }(time.Now())
	return i.Interface.CDRollbackMaterialList(ctx, cdPipelineID)
}

func (i *instrumentedClient) CITrigger(ctx context.Context, req sdk.CITriggerRequest) (_ *sdk.TriggerResponse, err error) {
	defer func(begin time.Time) { observe("CITrigger", err, begin) }(time.Now())
	return i.Interface.CITrigger(ctx, req)
}

func (i *instrumentedClient) CDTrigger(ctx context.Context, req sdk.CDTriggerRequest) (_ *sdk.TriggerResponse, err error) {
	defer func(begin time.Time) { observe("CDTrigger", err, begin) }(time.Now())
	return i.Interface.CDTrigger(ctx, req)
}

func (i *instrumentedClient) ChartRefList(ctx context.Context, appID int64) (_ *sdk.ChartRefsResponse, err error) {
	defer func(begin time.Time) { observe("ChartRefList", err, begin) }(time.Now())
	return i.Interface.ChartRefList(ctx, appID)
}

func (i *instrumentedClient) AppTemplateGet(ctx context.Context, appID, chartRefID int64) (_ *sdk.AppTemplate, err error) {
	defer func(begin time.Time) { observe("AppTemplateGet", err, begin) }(time.Now())
	return i.Interface.AppTemplateGet(ctx, appID, chartRefID)
}

func (i *instrumentedClient) EnvTemplateGet(ctx context.Context, appID, envID, chartRefID int64) (_ *sdk.EnvTemplateResponse, err error) {
	defer func(begin time.Time) { observe("EnvTemplateGet", err, begin) }(time.Now())
	return i.Interface.EnvTemplateGet(ctx, appID, envID, chartRefID)
}

func (i *instrumentedClient) EnvTemplateSave(ctx context.Context, appID int64, req sdk.EnvTemplateSaveRequest) (_ *sdk.EnvTemplate, err error) {
	defer func(begin time.Time) { observe("EnvTemplateSave", err, begin) }(time.Now())
	return i.Interface.EnvTemplateSave(ctx, appID, req)
}
