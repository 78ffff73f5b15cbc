package cache

import (
	"strings"
	"time"

	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
)

// Product entries expire quickly so a deactivated product stops selling
// within the TTL.
const defaultProductTTL = 30 * time.Second

// ProductLookupCache stores hot-path catalog lookups for checkout.
type ProductLookupCache interface {
	GetProduct(orgID, productID string) (catalogdomain.Product, bool)
	SetProduct(orgID string, product catalogdomain.Product)
	InvalidateProduct(orgID, productID string)
}

type productLookupCache struct {
	products Cache[string, catalogdomain.Product]
	ttl      time.Duration
}

// NewProductLookupCache returns an in-memory cache tuned for checkout.
func NewProductLookupCache() ProductLookupCache {
	return &productLookupCache{
		products: NewTTLCache[string, catalogdomain.Product](),
		ttl:      defaultProductTTL,
	}
}

func (c *productLookupCache) GetProduct(orgID, productID string) (catalogdomain.Product, bool) {
	return c.products.Get(cacheKey(orgID, productID))
}

func (c *productLookupCache) SetProduct(orgID string, product catalogdomain.Product) {
	if product.ID == 0 {
		return
	}
	c.products.Set(cacheKey(orgID, product.ID.String()), product, c.ttl)
}

func (c *productLookupCache) InvalidateProduct(orgID, productID string) {
	c.products.Delete(cacheKey(orgID, productID))
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
