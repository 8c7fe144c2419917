package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_CreatesDatabase(t *testing.T) {
	s, path := setupTestStore(t)
	assert.True(t, s.Enabled())
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	_, err = s.Save(ctx, "web", heart.ExampleRecord(), diagnosis.Diagnosis{})
	assert.True(t, errors.Is(err, ErrDisabled))
	_, err = s.Recent(ctx, 5)
	assert.True(t, errors.Is(err, ErrDisabled))
	_, err = s.Count(ctx)
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.NoError(t, s.Close())

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestSaveRecent(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	r := heart.ExampleRecord()
	first, err := s.Save(ctx, "web", r, diagnosis.Diagnosis{Label: 1, Probability: 0.8, CacheHit: true})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Diagnosis.CacheHit)

	r2 := r
	r2.Age = 41
	r2.Oldpeak = 0.4
	second, err := s.Save(ctx, "api", r2, diagnosis.Diagnosis{Label: 0, Probability: 0.1})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "api", list[0].Source)
	assert.Equal(t, r2, list[0].Record)
	assert.Equal(t, 0, list[0].Diagnosis.Label)
	assert.Equal(t, base.Add(2*time.Minute), list[0].CreatedAt)

	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, r, list[1].Record)
	assert.InDelta(t, 0.8, list[1].Diagnosis.Probability, 1e-12)

	list, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = s.Recent(ctx, 0)
	assert.Error(t, err)
}
