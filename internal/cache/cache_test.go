package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c, err := New(DefaultOptions())
	require.NoError(t, err)
	defer c.Close()

	c.Set("https://scoutapm.com/api/v0/apps", []byte(`{"apps":[]}`))
	c.Wait()

	body, found := c.Get("https://scoutapm.com/api/v0/apps")
	require.True(t, found)
	assert.JSONEq(t, `{"apps":[]}`, string(body))
}

func TestGetMiss(t *testing.T) {
	c, err := New(DefaultOptions())
	require.NoError(t, err)
	defer c.Close()

	_, found := c.Get("https://scoutapm.com/api/v0/apps/1")
	assert.False(t, found)
}

func TestEntryExpires(t *testing.T) {
	c, err := New(Options{TTL: 50 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	c.Set("key", []byte("value"))
	c.Wait()

	_, found := c.Get("key")
	require.True(t, found)

	time.Sleep(100 * time.Millisecond)

	_, found = c.Get("key")
	assert.False(t, found)
}
