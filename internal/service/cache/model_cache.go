package cache

import (
	"time"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	"AgriChain/pkg/util"

	gocache "github.com/patrickmn/go-cache"
)

var _ domrepo.ModelCache = (*ModelCache)(nil)

// ModelCache keeps trained models in memory. Keys are normalized so
// "Onion"/"onion " share one entry. A TTL of zero keeps models until evicted.
type ModelCache struct {
	c   *gocache.Cache
	ttl time.Duration
}

func NewModelCache(ttl time.Duration) *ModelCache {
	return &ModelCache{
		c:   gocache.New(expiration(ttl), cleanupInterval(ttl)),
		ttl: ttl,
	}
}

func modelKey(k models.ModelKey) string {
	return util.NormalizeName(k.Commodity) + "|" + util.NormalizeName(k.Market)
}

func (m *ModelCache) Get(key models.ModelKey) (*models.TrainedModel, bool) {
	v, ok := m.c.Get(modelKey(key))
	if !ok {
		return nil, false
	}
	tm, ok := v.(*models.TrainedModel)
	return tm, ok
}

func (m *ModelCache) Set(key models.ModelKey, tm *models.TrainedModel) {
	m.c.Set(modelKey(key), tm, gocache.DefaultExpiration)
}

func (m *ModelCache) Delete(key models.ModelKey) {
	m.c.Delete(modelKey(key))
}

func (m *ModelCache) Flush() {
	m.c.Flush()
}

func (m *ModelCache) Len() int {
	return m.c.ItemCount()
}
