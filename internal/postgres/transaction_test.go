package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAfterCommit(t *testing.T) {
	// without a transaction the callback runs immediately
	ran := false
	RunAfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)

	ctx, hooks := InstallTxHooks(context.Background())
	assert.NotNil(t, hooks)

	var order []int
	RunAfterCommit(ctx, func() { order = append(order, 1) })
	RunAfterCommit(ctx, func() { order = append(order, 2) })
	assert.Empty(t, order)

	hooks.Run()
	assert.Equal(t, []int{1, 2}, order)

	// Run clears the list, a second call is a no-op
	hooks.Run()
	assert.Equal(t, []int{1, 2}, order)
}

func TestInstallTxHooksNested(t *testing.T) {
	ctx, outer := InstallTxHooks(context.Background())
	assert.NotNil(t, outer)

	nested, inner := InstallTxHooks(ctx)
	assert.Nil(t, inner)

	ran := false
	RunAfterCommit(nested, func() { ran = true })
	assert.False(t, ran)

	outer.Run()
	assert.True(t, ran)
}
