// Package deploytemplate computes and saves the environment overrides of deployment templates.
package deploytemplate

import (
	"context"
	"encoding/json"

	"github.com/rockbears/log"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

// Effective returns the values deployed to an environment: the override if any, the application values otherwise.
func Effective(t *sdk.EnvTemplateResponse) []byte {
	if t.EnvironmentConfig.IsOverride && len(t.EnvironmentConfig.EnvOverrideValues) > 0 {
		return t.EnvironmentConfig.EnvOverrideValues
	}
	return t.GlobalConfig
}

// Schema returns the schema of the environment template, falling back to the application one.
func Schema(t *sdk.EnvTemplateResponse) json.RawMessage {
	if len(t.EnvironmentConfig.Schema) > 0 {
		return t.EnvironmentConfig.Schema
	}
	return t.Schema
}

// Apply overrides the application values of the environment with override, validates
// the result and saves it. The chart ref of the application is used if chartRefID is zero.
func Apply(ctx context.Context, c shipclient.TemplateClient, appID, envID, chartRefID int64, override []byte) (*sdk.EnvTemplate, error) {
	if chartRefID == 0 {
		refs, err := c.ChartRefList(ctx, appID)
		if err != nil {
			return nil, err
		}
		chartRefID = refs.LatestAppChartRef
		if chartRefID == 0 {
			latest, err := Latest(refs.ChartRefs, "")
			if err != nil {
				return nil, err
			}
			chartRefID = latest.ID
		}
	}

	current, err := c.EnvTemplateGet(ctx, appID, envID, chartRefID)
	if err != nil {
		return nil, err
	}

	values, err := Override(current.GlobalConfig, override)
	if err != nil {
		return nil, err
	}
	if err := Validate(Schema(current), values); err != nil {
		return nil, err
	}

	req := sdk.EnvTemplateSaveRequest{
		ID:                current.EnvironmentConfig.ID,
		EnvironmentID:     envID,
		ChartRefID:        chartRefID,
		IsOverride:        true,
		EnvOverrideValues: values,
		Namespace:         current.Namespace,
	}
	log.Info(ctx, "saving override of app %d on environment %d with chart ref %d", appID, envID, chartRefID)
	return c.EnvTemplateSave(ctx, appID, req)
}
