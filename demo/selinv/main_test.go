package main

import (
	"context"
	"testing"
	"time"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/pc2/SubmatrixMethod/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRounds(t *testing.T) {
	cfg := &config.Config{Repetitions: 2, Choices: 3}
	ps, err := rounds(cfg, []string{"1000", "5", "10"})
	require.NoError(t, err)
	require.Len(t, ps, 6)
	assert.Equal(t, SM.Properties{Size: 1000, Density: 5, Condition: 10, Choice: 2}, ps[5])

	for _, args := range [][]string{nil, {"1000", "5"}, {"1000", "5", "10", "1"}, {"1000", "x", "10"}, {"-1", "5", "10"}} {
		_, err = rounds(cfg, args)
		assert.ErrorIs(t, err, SM.ErrBadArguments, "%q", args)
	}
}

func TestCoordinatorBadArgumentsWithoutWorkers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg := &config.Config{WorldSize: 3, Coordinator: "127.0.0.1:0", Repetitions: 1, Choices: 1}
	start := time.Now()
	err := runCoordinator(ctx, cfg, []string{"1000", "5"}, nil)
	assert.ErrorIs(t, err, SM.ErrBadArguments)
	assert.NoError(t, ctx.Err())
	assert.Less(t, time.Since(start), time.Second)
}
