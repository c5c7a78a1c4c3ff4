package mvi

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCellSubscribeReceivesCurrentValue(t *testing.T) {
	cell := NewStateCell(1)
	cell.Update(func(v int) int { return v + 1 })

	ch, cancel := cell.Subscribe()
	defer cancel()

	assert.Equal(t, 2, <-ch)
	assert.EqualValues(t, 2, cell.Version())
}

func TestStateCellLatestWins(t *testing.T) {
	cell := NewStateCell(0)
	ch, cancel := cell.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		v := i
		cell.Update(func(int) int { return v })
	}

	assert.Equal(t, 5, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestStateCellClose(t *testing.T) {
	cell := NewStateCell("a")
	ch, _ := cell.Subscribe()
	<-ch

	cell.Close()
	_, ok := <-ch
	assert.False(t, ok)

	cell.Update(func(string) string { return "b" })
	assert.Equal(t, "a", cell.Get())

	late, _ := cell.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestStateCellUnsubscribe(t *testing.T) {
	cell := NewStateCell(0)
	ch, cancel := cell.Subscribe()
	<-ch
	cancel()
	cancel()

	cell.Update(func(int) int { return 1 })
	_, ok := <-ch
	assert.False(t, ok)
}

func TestNotificationsNotReplayed(t *testing.T) {
	n := NewNotifications[string](0)
	early, cancelEarly := n.Subscribe()
	defer cancelEarly()

	assert.Equal(t, 1, n.Emit("boom"))

	late, cancelLate := n.Subscribe()
	defer cancelLate()

	assert.Equal(t, "boom", <-early)
	select {
	case v := <-late:
		t.Fatalf("late subscriber got replayed event %q", v)
	default:
	}
}

func TestNotificationsDropWhenFull(t *testing.T) {
	n := NewNotifications[int](1)
	ch, cancel := n.Subscribe()
	defer cancel()

	assert.Equal(t, 1, n.Emit(1))
	assert.Equal(t, 0, n.Emit(2))
	assert.Equal(t, 1, <-ch)
}

func TestNotificationsClose(t *testing.T) {
	n := NewNotifications[int](1)
	ch, _ := n.Subscribe()
	n.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, n.Emit(1))
}

func TestQueueDrainRunsNestedTasks(t *testing.T) {
	var q Queue
	var order []int
	q.Execute(func() {
		order = append(order, 1)
		q.Execute(func() { order = append(order, 3) })
	})
	q.Execute(func() { order = append(order, 2) })

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 3, q.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.False(t, q.RunOne())
}

func TestImmediateRunsInline(t *testing.T) {
	ran := false
	Immediate.Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestLoopRunsTasksSerially(t *testing.T) {
	loop := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	var count int64
	for i := 0; i < 10; i++ {
		loop.Execute(func() { atomic.AddInt64(&count, 1) })
	}
	require.NoError(t, loop.Do(context.Background(), func() {}))
	assert.EqualValues(t, 10, atomic.LoadInt64(&count))

	cancel()
	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	loop.Execute(func() { t.Fatal("task ran after stop") })
	assert.Error(t, loop.Do(context.Background(), func() {}))
}
