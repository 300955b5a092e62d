package main

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
)

type recordingCache struct {
	deleted []string
	err     error
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("miss")
}
func (c *recordingCache) Set(ctx context.Context, key string, v []byte, ttl int) error { return nil }
func (c *recordingCache) Delete(ctx context.Context, key string) error {
	if c.err != nil {
		return c.err
	}
	c.deleted = append(c.deleted, key)
	return nil
}

func TestAuditor_InvalidatesAndCounts(t *testing.T) {
	cache := &recordingCache{}
	a := &auditor{cache: cache}
	counter := metrics.GridEventsConsumed.WithLabelValues("city_edits", "deleted")
	before := testutil.ToFloat64(counter)

	err := a.handle(context.Background(), &domain.GridEvent{
		Resource: "city_edits", Action: "deleted", IDs: []int64{3, 4},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"city_edits:id:3", "city_edits:id:4", "city_edits:latest"}, cache.deleted)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestAuditor_CacheFailureRequestsRedelivery(t *testing.T) {
	a := &auditor{cache: &recordingCache{err: errors.New("valkey down")}}

	err := a.handle(context.Background(), &domain.GridEvent{Resource: "layouts", Action: "updated", IDs: []int64{1}})
	assert.Error(t, err)
}

func TestAuditor_NoCache(t *testing.T) {
	a := &auditor{}
	assert.NoError(t, a.handle(context.Background(), &domain.GridEvent{Resource: "layouts", Action: "created"}))
}
