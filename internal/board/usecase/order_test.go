package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderQueueSkipsSupersededJobs(t *testing.T) {
	q := newOrderQueue()

	started, release := make(chan struct{}), make(chan struct{})
	q.enqueue("a", func(context.Context) error {
		close(started)
		<-release
		return nil
	}, nil)
	<-started

	var mu sync.Mutex
	var ran []int
	for i := 1; i <= 3; i++ {
		i := i
		q.enqueue("b", func(context.Context) error {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			return nil
		}, nil)
	}
	close(release)
	q.wait()

	assert.Equal(t, []int{3}, ran)
}

func TestOrderQueueReportsFailures(t *testing.T) {
	q := newOrderQueue()
	boom := errors.New("boom")

	var gotScope string
	var gotErr error
	q.enqueue("x", func(context.Context) error { return boom }, func(scope string, err error) {
		gotScope, gotErr = scope, err
	})
	q.wait()

	assert.Equal(t, "x", gotScope)
	assert.ErrorIs(t, gotErr, boom)
}
