package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStressCommand_Flags(t *testing.T) {
	cmd := newStressCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--redis", "cache:6380", "--visitors", "5", "--shared", "7", "--stock", "3"}))

	for name, want := range map[string]string{
		"redis":    "cache:6380",
		"visitors": "5",
		"shared":   "7",
		"stock":    "3",
	} {
		assert.Equal(t, want, cmd.Flags().Lookup(name).Value.String(), name)
	}
}

func TestRunStress_UnreachableRedisReturnsError(t *testing.T) {
	err := runStress(context.Background(), &stressOptions{
		redisAddr:      "127.0.0.1:1",
		visitors:       1,
		sharedRequests: 1,
		stock:          1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}
