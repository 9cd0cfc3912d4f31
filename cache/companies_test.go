// ABOUTME: Tests for the Redis company search cache using miniredis
// ABOUTME: Verifies hits, invalidation on create and fallback when Redis is down
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor/mocks"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSearchIsCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	dir := new(mocks.CompanyDirectory)
	acme := []models.Company{{ID: uuid.New(), Name: "Acme"}}
	dir.On("SearchCompanies", mock.Anything, "Acme", 10).Return(acme, nil).Once()

	c := NewCompanyCache(dir, rdb, time.Minute, nil)
	ctx := context.Background()

	first, err := c.SearchCompanies(ctx, "Acme", 10)
	require.NoError(t, err)
	second, err := c.SearchCompanies(ctx, "Acme", 10)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	dir.AssertNumberOfCalls(t, "SearchCompanies", 1)
	assert.True(t, mr.Exists(searchKey("acme", 10)))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(searchKey("acme", 10)))
}

func TestCreateInvalidatesSearches(t *testing.T) {
	mr, rdb := setupRedis(t)
	dir := new(mocks.CompanyDirectory)
	dir.On("SearchCompanies", mock.Anything, "glo", 10).Return([]models.Company{}, nil)
	dir.On("CreateCompany", mock.Anything, "Globex", "Energy").Return(&models.Company{ID: uuid.New(), Name: "Globex"}, nil)

	c := NewCompanyCache(dir, rdb, time.Minute, nil)
	ctx := context.Background()

	_, err := c.SearchCompanies(ctx, "glo", 10)
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	created, err := c.CreateCompany(ctx, "Globex", "Energy")
	require.NoError(t, err)
	assert.Equal(t, "Globex", created.Name)
	assert.Empty(t, mr.Keys())
}

func TestRedisDownFallsBackToDirectory(t *testing.T) {
	mr, rdb := setupRedis(t)
	dir := new(mocks.CompanyDirectory)
	dir.On("SearchCompanies", mock.Anything, "acme", 5).Return([]models.Company{{Name: "Acme"}}, nil)

	c := NewCompanyCache(dir, rdb, time.Minute, nil)
	mr.Close()

	got, err := c.SearchCompanies(context.Background(), "acme", 5)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got[0].Name)
}

func TestSearchErrorNotCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	dir := new(mocks.CompanyDirectory)
	dir.On("SearchCompanies", mock.Anything, "acme", 10).Return(nil, context.DeadlineExceeded)

	c := NewCompanyCache(dir, rdb, time.Minute, nil)
	_, err := c.SearchCompanies(context.Background(), "acme", 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, mr.Keys())
}
