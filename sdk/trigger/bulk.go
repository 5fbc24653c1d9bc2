package trigger

import (
	"context"

	"github.com/rockbears/log"
	"golang.org/x/sync/errgroup"

	"github.com/shipyard-ci/shipctl/sdk"
	shiplog "github.com/shipyard-ci/shipctl/sdk/log"
)

// DefaultBulkConcurrency is the number of trigger calls of a bulk run in flight at once.
const DefaultBulkConcurrency = 8

// Call is one pending trigger call of a bulk run.
type Call func(ctx context.Context) error

// Aggregate runs all calls and classifies each outcome, rows[i] matching apps[i].
// A failing call never stops the others and nothing is retried.
func Aggregate(ctx context.Context, calls []Call, apps []sdk.AppRef, limit int) ([]sdk.ResponseRow, error) {
	if len(calls) != len(apps) {
		return nil, sdk.NewErrorFrom(sdk.ErrWrongRequest, "%d calls for %d applications", len(calls), len(apps))
	}

	rows := make([]sdk.ResponseRow, len(calls))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range calls {
		i := i
		g.Go(func() error {
			ctx := context.WithValue(ctx, shiplog.AppID, apps[i].AppID)
			err := calls[i](ctx)
			rows[i] = classify(apps[i], err)
			if err != nil {
				log.Warn(ctx, "bulk trigger of %s: %v", apps[i], err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return rows, nil
}

func classify(app sdk.AppRef, err error) sdk.ResponseRow {
	row := sdk.ResponseRow{AppID: app.AppID, AppName: app.AppName}
	switch {
	case err == nil:
		row.Status = sdk.BulkStatusPass
		row.Message = "Pipeline triggered"
	case sdk.IsForbidden(err):
		row.Status = sdk.BulkStatusUnauthorize
		row.Message = sdk.UserMessage(err)
	default:
		row.Status = sdk.BulkStatusFail
		row.Message = sdk.UserMessage(err)
	}
	return row
}

// CountStatus returns the number of rows of each status.
func CountStatus(rows []sdk.ResponseRow) map[sdk.BulkStatus]int {
	res := map[sdk.BulkStatus]int{}
	for _, r := range rows {
		res[r.Status]++
	}
	return res
}
