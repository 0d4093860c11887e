package document

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCRUD(t *testing.T) {
	store := NewStore()
	rec := &Record{DocID: uuid.New(), Status: StatusProcessing}

	_, ok := store.Get(rec.DocID)
	assert.False(t, ok)

	store.Save(rec)
	got, ok := store.Get(rec.DocID)
	require.True(t, ok)
	assert.Equal(t, rec.DocID, got.DocID)
	assert.Equal(t, 1, store.Len())

	rec.Status = StatusCancelled
	store.Update(rec)
	got, ok = store.Get(rec.DocID)
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, got.Status)

	store.Delete(rec.DocID)
	_, ok = store.Get(rec.DocID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStoreGetReturnsDetachedCopy(t *testing.T) {
	store := NewStore()
	rec := &Record{
		DocID:          uuid.New(),
		Status:         StatusProcessing,
		Clarifications: []*Clarification{{ID: uuid.New(), Status: ClarificationOpen}},
	}
	store.Save(rec)

	got, ok := store.Get(rec.DocID)
	require.True(t, ok)
	got.Status = StatusCancelled
	got.Clarifications[0].Status = ClarificationExpired

	again, ok := store.Get(rec.DocID)
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, again.Status)
	assert.Equal(t, ClarificationOpen, again.Clarifications[0].Status)
}

func TestStoreMutate(t *testing.T) {
	store := NewStore()
	rec := &Record{DocID: uuid.New(), Status: StatusProcessing}
	store.Save(rec)

	ok := store.Mutate(rec.DocID, func(r *Record) { r.Status = StatusCancelled })
	require.True(t, ok)

	got, _ := store.Get(rec.DocID)
	assert.Equal(t, StatusCancelled, got.Status)

	assert.False(t, store.Mutate(uuid.New(), func(*Record) {}))
}

func TestStoreDeleteMissing(t *testing.T) {
	store := NewStore()
	store.Delete(uuid.New())
	assert.Equal(t, 0, store.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &Record{DocID: uuid.New()}
			store.Save(rec)
			store.Get(rec.DocID)
			store.Update(rec)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}
