package visits

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/db/dbtest"
)

func TestDay(t *testing.T) {
	assert.Equal(t, "2024-03-09", Day(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)))
}

func TestLiteRepo_IncrementAndHistory(t *testing.T) {
	r := NewLiteRepo(dbtest.NewSQLite(t))
	ctx := context.Background()

	n, err := r.Increment(ctx, "s1", "2024-03-09")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Increment(ctx, "s1", "2024-03-10")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err = r.Increment(ctx, "s2", "2024-03-10")
	require.NoError(t, err)

	h, err := r.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2024-03-09": 1, "2024-03-10": 5}, h)

	empty, err := r.History(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
