package sdk

import "encoding/json"

// ChartRef is a chart version usable by a deployment template.
type ChartRef struct {
	ID      int64  `json:"id" cli:"id,key"`
	Name    string `json:"name" cli:"name"`
	Version string `json:"version" cli:"version"`
}

// ChartRefsResponse lists the chart versions available to an application.
type ChartRefsResponse struct {
	ChartRefs         []ChartRef `json:"chartRefs"`
	LatestChartRef    int64      `json:"latestChartRef"`
	LatestAppChartRef int64      `json:"latestAppChartRef"`
	LatestEnvChartRef int64      `json:"latestEnvChartRef,omitempty"`
}

// AppTemplate is the application level deployment template.
type AppTemplate struct {
	ID                 int64           `json:"id"`
	AppID              int64           `json:"appId"`
	ChartRefID         int64           `json:"chartRefId"`
	DefaultAppOverride json.RawMessage `json:"defaultAppOverride"`
	Schema             json.RawMessage `json:"schema,omitempty"`
	Readme             string          `json:"readme,omitempty"`
}

// AppTemplateResponse wraps the application template.
type AppTemplateResponse struct {
	GlobalConfig AppTemplate `json:"globalConfig"`
}

// EnvTemplate is the environment level override of a deployment template.
type EnvTemplate struct {
	ID                int64           `json:"id,omitempty"`
	AppID             int64           `json:"appId,omitempty"`
	EnvironmentID     int64           `json:"environmentId"`
	ChartRefID        int64           `json:"chartRefId"`
	IsOverride        bool            `json:"IsOverride"`
	GlobalConfig      json.RawMessage `json:"globalConfig,omitempty"`
	EnvOverrideValues json.RawMessage `json:"envOverrideValues,omitempty"`
	Schema            json.RawMessage `json:"schema,omitempty"`
	Namespace         string          `json:"namespace,omitempty"`
	Status            int             `json:"status,omitempty"`
	Latest            bool            `json:"latest"`
}

// EnvTemplateResponse wraps the environment override.
type EnvTemplateResponse struct {
	EnvironmentConfig EnvTemplate     `json:"environmentConfig"`
	GlobalConfig      json.RawMessage `json:"globalConfig"`
	GlobalChartRefID  int64           `json:"globalChartRefId"`
	Schema            json.RawMessage `json:"schema,omitempty"`
	Namespace         string          `json:"namespace"`
}

// EnvTemplateSaveRequest creates or updates an environment override.
type EnvTemplateSaveRequest struct {
	EnvironmentID     int64           `json:"environmentId"`
	ChartRefID        int64           `json:"chartRefId"`
	IsOverride        bool            `json:"IsOverride"`
	EnvOverrideValues json.RawMessage `json:"envOverrideValues"`
	ID                int64           `json:"id,omitempty"`
	Namespace         string          `json:"namespace,omitempty"`
}
