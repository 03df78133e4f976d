package service

import "context"

// Gate 限制同时进行的渲染数量。
// 渲染子进程吃满 CPU，并发数默认是 1。
type Gate struct {
	slots chan struct{}
}

func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{slots: make(chan struct{}, capacity)}
}

// Acquire 占一个渲染名额，ctx 取消时放弃等待
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release 归还名额，必须和成功的 Acquire 成对出现
func (g *Gate) Release() {
	<-g.slots
}
