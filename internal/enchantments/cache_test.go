package enchantments

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enchantment-resolver/internal/common/logging"
)

func TestCache_Freshness(t *testing.T) {
	c := newCache(time.Hour, nil)

	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Set(Resolution{Key: 1, ItemID: intPtr(10), Name: "Fresh", Category: CategoryGem})
	c.Load(Resolution{Key: 2, Name: "Old", Category: CategoryEnchant}, time.Now().Add(-2*time.Hour))

	fresh, ok := c.Get(1)
	require.True(t, ok)
	assert.True(t, fresh.Fresh(time.Now()))
	assert.Equal(t, time.Hour, fresh.TTL)

	// stale entries stay until overwritten or cleared
	stale, ok := c.Get(2)
	require.True(t, ok)
	assert.False(t, stale.Fresh(time.Now()))
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_StoresCopies(t *testing.T) {
	c := newCache(time.Hour, nil)
	id := 5
	c.Set(Resolution{Key: 1, ItemID: &id, Name: "x", Category: CategoryGem})
	id = 6

	entry, _ := c.Get(1)
	assert.Equal(t, 5, *entry.Resolution.ItemID)
}

func TestCache_SetPersistsLoadDoesNot(t *testing.T) {
	store := &fakeStore{}
	p := newPersister(store, 8, time.Second, logging.GetGlobalLogger())
	p.start()
	c := newCache(time.Hour, p)

	c.Load(Resolution{Key: 1, Name: "loaded", Category: CategoryGem}, time.Now())
	c.Set(Resolution{Key: 2, ItemID: intPtr(20), Name: "set", Category: CategoryEnchant})
	p.stop()

	upserts := store.Upserts()
	require.Len(t, upserts, 1)
	assert.Equal(t, 2, upserts[0].EnchantID)
	assert.Equal(t, 20, *upserts[0].ItemID)
	assert.Equal(t, "enchant", upserts[0].Category)
	assert.False(t, upserts[0].UpdatedAt.IsZero())
}

func TestPersister_FailuresAndOverflowAreSwallowed(t *testing.T) {
	store := &fakeStore{upsertErr: stderrors.New("disk full")}
	p := newPersister(store, 1, time.Second, logging.GetGlobalLogger())

	// not started: the second write overflows the buffer and is dropped
	p.enqueue(Fallback(1), time.Now())
	p.enqueue(Fallback(2), time.Now())
	p.stop()

	// writes after stop are dropped without panicking
	p.enqueue(Fallback(3), time.Now())
	assert.Empty(t, store.Upserts())
}

func TestPersister_FlushesOnStop(t *testing.T) {
	store := &fakeStore{}
	p := newPersister(store, 16, time.Second, logging.GetGlobalLogger())
	for key := 1; key <= 10; key++ {
		p.enqueue(Fallback(key), time.Now())
	}
	p.stop()

	assert.Len(t, store.Upserts(), 10)
}
