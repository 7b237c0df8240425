package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) GetConfig(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", ErrNotFound{Resource: "config", ID: key}
	}
	return v, nil
}

func (m mapStore) SetConfig(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapStore) DeleteConfig(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestErrNotFound(t *testing.T) {
	err := ErrNotFound{Resource: "config", ID: KeyNightscoutURL}

	assert.Equal(t, "config not found: nightscout.url", err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", err)))
}

func TestIsNotFoundFalse(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(assert.AnError))
}

func TestGetBool(t *testing.T) {
	ctx := context.Background()
	s := mapStore{KeyShowDelta: "false", KeyShowElapsed: "yes"}

	v, err := GetBool(ctx, s, KeyShowDelta, true)
	require.NoError(t, err)
	assert.False(t, v)

	v, err = GetBool(ctx, s, "display.missing", true)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = GetBool(ctx, s, KeyShowElapsed, true)
	assert.Error(t, err)
	assert.True(t, v)
}

func TestRefreshState(t *testing.T) {
	state := &RefreshState{Site: "example.org"}

	state.RecordError(errors.New("timeout"))
	state.RecordError(errors.New("still down"))
	assert.Equal(t, 2, state.ErrorCount)
	assert.Equal(t, "still down", state.LastError)

	now := time.Now()
	state.RecordSuccess(now)
	assert.Equal(t, 0, state.ErrorCount)
	assert.Empty(t, state.LastError)
	assert.Equal(t, now, state.LastRun)
}
