package service

import "sync"

// customerLocks 按客户串行化写操作 (创建/删除)，同一进程内生效
type customerLocks struct {
	mu    sync.Mutex
	locks map[int64]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[int64]*customerLock)}
}

// Lock 获取客户锁，返回解锁函数；无人等待时释放 map 中的条目
func (l *customerLocks) Lock(customerID int64) func() {
	l.mu.Lock()
	cl, ok := l.locks[customerID]
	if !ok {
		cl = &customerLock{}
		l.locks[customerID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, customerID)
		}
		l.mu.Unlock()
	}
}
