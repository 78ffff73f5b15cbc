package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_ExpiresEntries(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 20*time.Millisecond)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_DeleteAndZeroTTL(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	// A non-positive ttl never stores.
	c.Set("b", 2, 0)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestProductLookupCache_ScopesByOrg(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	c := NewProductLookupCache()
	product := catalogdomain.Product{ID: node.Generate(), Name: "Coffee", UnitPrice: 3.5, Active: true}

	c.SetProduct("org-a", product)

	got, ok := c.GetProduct("org-a", product.ID.String())
	require.True(t, ok)
	assert.Equal(t, "Coffee", got.Name)

	_, ok = c.GetProduct("org-b", product.ID.String())
	assert.False(t, ok)

	c.InvalidateProduct("org-a", product.ID.String())
	_, ok = c.GetProduct("org-a", product.ID.String())
	assert.False(t, ok)
}
