package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newThrottler(t *testing.T, interval time.Duration, buffer int) (*PriceThrottler, chan PriceUpdate, *fakeClock) {
	ch := make(chan PriceUpdate, buffer)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	pt := NewPriceThrottler(interval, ch, zaptest.NewLogger(t))
	pt.now = clock.Now
	return pt, ch, clock
}

func TestPriceThrottlerThrottles(t *testing.T) {
	pt, ch, clock := newThrottler(t, time.Second, 10)

	pt.SendPriceUpdate(PriceUpdate{Current: 1})
	pt.SendPriceUpdate(PriceUpdate{Current: 2})
	pt.SendPriceUpdate(PriceUpdate{Current: 3})

	assert.Len(t, ch, 1)
	assert.True(t, pt.HasPendingUpdate())

	pt.FlushPending()
	assert.Len(t, ch, 1, "interval not elapsed")

	clock.Advance(time.Second)
	pt.FlushPending()
	assert.False(t, pt.HasPendingUpdate())

	first, second := <-ch, <-ch
	assert.Equal(t, 1.0, first.Current)
	assert.Equal(t, 3.0, second.Current, "latest pending update wins")

	sent, dropped := pt.GetStats()
	assert.Equal(t, uint64(2), sent)
	assert.Equal(t, uint64(2), dropped)
	assert.Equal(t, clock.Now(), pt.GetLastUpdate())
}

func TestPriceThrottlerFullChannel(t *testing.T) {
	pt, ch, clock := newThrottler(t, 0, 1)

	pt.SendPriceUpdate(PriceUpdate{Current: 1})
	clock.Advance(time.Millisecond)
	pt.SendPriceUpdate(PriceUpdate{Current: 2})
	assert.True(t, pt.HasPendingUpdate())

	<-ch
	pt.FlushPending()
	assert.False(t, pt.HasPendingUpdate())
	assert.Equal(t, 2.0, (<-ch).Current)
}

func TestPriceThrottlerConcurrentAccess(t *testing.T) {
	ch := make(chan PriceUpdate, 100)
	pt := NewPriceThrottler(time.Millisecond, ch, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pt.SendPriceUpdate(PriceUpdate{Current: float64(id*1000 + j)})
				if j%10 == 0 {
					pt.FlushPending()
					_, _ = pt.GetStats()
				}
			}
		}(i)
	}
	wg.Wait()

	sent, dropped := pt.GetStats()
	assert.GreaterOrEqual(t, sent+dropped, uint64(1000))
}
