package trigger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

func TestSlot(t *testing.T) {
	s := trigger.NewSlot(trigger.SlotCIMaterial)

	ctx1, t1 := s.Begin(context.TODO())
	ctx2, t2 := s.Begin(context.TODO())
	assert.Greater(t, t2, t1)
	assert.Error(t, ctx1.Err())
	assert.NoError(t, ctx2.Err())

	applied := false
	assert.False(t, s.Apply(t1, func() { applied = true }))
	assert.False(t, applied)
	assert.True(t, s.Apply(t2, func() { applied = true }))
	assert.True(t, applied)

	s.Abort()
	assert.Error(t, ctx2.Err())
	assert.False(t, s.IsLatest(t2))
}

func TestSlotEnd(t *testing.T) {
	s := trigger.NewSlot(trigger.SlotCDMaterial)
	ctx, token := s.Begin(context.TODO())
	s.End(token)
	assert.Error(t, ctx.Err())
	assert.True(t, s.IsLatest(token))
}
