package trigger

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shipyard-ci/shipctl/sdk"
)

// Material cache durations
const (
	MaterialCacheTTL     = 2 * time.Minute
	MaterialCacheCleanup = 5 * time.Minute
)

// materialCache keeps the commit history of CI pipelines between two refreshes.
type materialCache struct {
	c *cache.Cache
}

func newMaterialCache() *materialCache {
	return &materialCache{c: cache.New(MaterialCacheTTL, MaterialCacheCleanup)}
}

func materialCacheKey(ciPipelineID int64) string {
	return strconv.FormatInt(ciPipelineID, 10)
}

func (m *materialCache) get(ciPipelineID int64) ([]sdk.CIMaterial, bool) {
	v, has := m.c.Get(materialCacheKey(ciPipelineID))
	if !has {
		return nil, false
	}
	return cloneMaterials(v.([]sdk.CIMaterial)), true
}

func (m *materialCache) set(ciPipelineID int64, materials []sdk.CIMaterial) {
	m.c.SetDefault(materialCacheKey(ciPipelineID), cloneMaterials(materials))
}

func (m *materialCache) invalidate(ciPipelineID int64) {
	m.c.Delete(materialCacheKey(ciPipelineID))
}

func (m *materialCache) flush() {
	m.c.Flush()
}
