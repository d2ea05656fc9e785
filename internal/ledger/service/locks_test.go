package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerLocks_SerializesSameCustomer(t *testing.T) {
	locks := newCustomerLocks()
	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks)
}

func TestCustomerLocks_IndependentCustomers(t *testing.T) {
	locks := newCustomerLocks()
	unlockA := locks.Lock(1)
	unlockB := locks.Lock(2)
	assert.Len(t, locks.locks, 2)
	unlockA()
	unlockB()
	assert.Empty(t, locks.locks)
}
