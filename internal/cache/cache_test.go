package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

func TestCacheSetGet(t *testing.T) {
	c := New()

	c.Set("trending", "value", time.Minute)
	got, ok := c.Get("trending")
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New()

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestItemCachePutGet(t *testing.T) {
	ic := NewItemCache()

	ic.Put([]news.Item{{ID: "n_aaa", Title: "기사"}})
	item, ok := ic.Get("n_aaa")
	assert.True(t, ok)
	assert.Equal(t, "기사", item.Title)

	_, ok = ic.Get("n_zzz")
	assert.False(t, ok)
}

func TestItemCacheUpdateKeepsSingleEntry(t *testing.T) {
	ic := NewItemCache()

	ic.Put([]news.Item{{ID: "n_aaa", Title: "원래 제목"}})
	ic.Put([]news.Item{{ID: "n_aaa", Title: "수정된 제목"}})

	assert.Equal(t, 1, ic.Len())
	item, _ := ic.Get("n_aaa")
	assert.Equal(t, "수정된 제목", item.Title)
}

func TestItemCacheTrimsOldest(t *testing.T) {
	ic := NewItemCache()

	var items []news.Item
	for i := 0; i < itemCacheMax+1; i++ {
		items = append(items, news.Item{ID: fmt.Sprintf("n_%04d", i)})
	}
	ic.Put(items)

	assert.Equal(t, itemCacheMax+1-itemCacheTrim, ic.Len())

	// Oldest went, newest stays.
	_, ok := ic.Get("n_0000")
	assert.False(t, ok)
	_, ok = ic.Get(fmt.Sprintf("n_%04d", itemCacheMax))
	assert.True(t, ok)
}
