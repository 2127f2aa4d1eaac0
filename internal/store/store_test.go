package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID     string
	Status string
	Amount int64
}

func TestPutGet(t *testing.T) {
	s := New[record]()
	now := time.Now()

	require.NoError(t, s.Put("pi_1", record{ID: "pi_1", Status: "processing"}, now))

	got, err := s.Get("pi_1")
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)

	_, err = s.Get("pi_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutDuplicate(t *testing.T) {
	s := New[record]()
	now := time.Now()

	require.NoError(t, s.Put("pi_1", record{ID: "pi_1"}, now))
	assert.ErrorIs(t, s.Put("pi_1", record{ID: "pi_1"}, now), ErrExists)
}

func TestListInsertionOrder(t *testing.T) {
	s := New[record]()
	now := time.Now()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("pi_%d", i)
		require.NoError(t, s.Put(id, record{ID: id}, now))
	}

	got := s.List()
	require.Len(t, got, 5)
	for i, r := range got {
		assert.Equal(t, fmt.Sprintf("pi_%d", i), r.ID)
	}
}

func TestMutateRollsBackOnError(t *testing.T) {
	s := New[record]()
	require.NoError(t, s.Put("pi_1", record{ID: "pi_1", Amount: 100}, time.Now()))

	boom := errors.New("boom")
	_, err := s.Mutate("pi_1", func(v *record) error {
		v.Amount = 999
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get("pi_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount)
}

func TestApplyLastWriterWins(t *testing.T) {
	s := New[record]()
	t0 := time.Now()
	require.NoError(t, s.Put("pi_1", record{ID: "pi_1", Status: "processing"}, t0))

	// Newer observation applies.
	_, applied, err := s.Apply("pi_1", t0.Add(2*time.Second), func(v *record) error {
		v.Status = "succeeded"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// A delayed write carrying an older observation is skipped.
	snap, applied, err := s.Apply("pi_1", t0.Add(time.Second), func(v *record) error {
		v.Status = "requires_confirmation"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "succeeded", snap.Status)
}

func TestApplyUnknownID(t *testing.T) {
	s := New[record]()
	_, _, err := s.Apply("pi_missing", time.Now(), func(v *record) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMutateSerializesPerID(t *testing.T) {
	s := New[record]()
	require.NoError(t, s.Put("pi_1", record{ID: "pi_1"}, time.Now()))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Mutate("pi_1", func(v *record) error {
				v.Amount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get("pi_1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), got.Amount)
}
