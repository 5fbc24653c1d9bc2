package trigger_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

func TestAggregate(t *testing.T) {
	apps := []sdk.AppRef{{AppID: 1, AppName: "one"}, {AppID: 2, AppName: "two"}, {AppID: 3, AppName: "three"}}
	calls := []trigger.Call{
		func(ctx context.Context) error { time.Sleep(20 * time.Millisecond); return nil },
		func(ctx context.Context) error {
			return &sdk.APIError{Code: 403, Errors: []sdk.APIErrorItem{{UserMessage: "forbidden"}}}
		},
		func(ctx context.Context) error { return nil },
	}

	rows, err := trigger.Aggregate(context.TODO(), calls, apps, 0)
	require.NoError(t, err)
	assert.Equal(t, []sdk.ResponseRow{
		{AppID: 1, AppName: "one", Status: sdk.BulkStatusPass, Message: "Pipeline triggered"},
		{AppID: 2, AppName: "two", Status: sdk.BulkStatusUnauthorize, Message: "forbidden"},
		{AppID: 3, AppName: "three", Status: sdk.BulkStatusPass, Message: "Pipeline triggered"},
	}, rows)

	counts := trigger.CountStatus(rows)
	assert.Equal(t, 2, counts[sdk.BulkStatusPass])
	assert.Equal(t, 1, counts[sdk.BulkStatusUnauthorize])
}

func TestAggregateNeverShortCircuits(t *testing.T) {
	var ran int32
	apps := make([]sdk.AppRef, 5)
	calls := make([]trigger.Call, 5)
	for i := range calls {
		i := i
		apps[i] = sdk.AppRef{AppID: int64(i + 1)}
		calls[i] = func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			if i%2 == 0 {
				return &sdk.APIError{Code: 500, Errors: []sdk.APIErrorItem{{InternalMessage: fmt.Sprintf("boom %d", i)}}}
			}
			return nil
		}
	}

	rows, err := trigger.Aggregate(context.TODO(), calls, apps, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
	for i, r := range rows {
		assert.Equal(t, int64(i+1), r.AppID)
		if i%2 == 0 {
			assert.Equal(t, sdk.BulkStatusFail, r.Status)
			assert.Equal(t, fmt.Sprintf("boom %d", i), r.Message)
		} else {
			assert.Equal(t, sdk.BulkStatusPass, r.Status)
		}
	}
}

func TestAggregateMismatch(t *testing.T) {
	_, err := trigger.Aggregate(context.TODO(), make([]trigger.Call, 2), make([]sdk.AppRef, 1), 0)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrWrongRequest))
}
