package observable

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFO(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	for i := 0; i < 1000; i++ {
		m.Put(i)
	}

	for i := 0; i < 1000; i++ {
		select {
		case v := <-m.Out():
			require.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for value %d", i)
		}
	}
}

func TestMailbox_PutNeverBlocks(t *testing.T) {
	m := NewMailbox[string]()
	defer m.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			m.Put("x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Put blocked without a receiver")
	}
}

func TestMailbox_ConcurrentProducers(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Put(i)
			}
		}()
	}
	wg.Wait()

	got := 0
	for got < 800 {
		select {
		case <-m.Out():
			got++
		case <-time.After(time.Second):
			t.Fatalf("received %d of 800 values", got)
		}
	}
}

func TestMailbox_CloseClosesOut(t *testing.T) {
	m := NewMailbox[int]()
	m.Close()
	m.Close()
	m.Put(1)

	assert.Eventually(t, func() bool {
		_, ok := <-m.Out()
		return !ok
	}, time.Second, 10*time.Millisecond)
}
