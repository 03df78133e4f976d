package render

import (
	"sync"
	"time"

	"animagen-backend/pkg/logger"
)

type registryEntry struct {
	result    *Result
	createdAt time.Time
}

// Registry 跟踪还未清理的渲染工作区，保证进程退出前不留垃圾目录
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	done    chan struct{}
	once    sync.Once
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		done:    make(chan struct{}),
	}
}

// Put 登记一个渲染结果，等待后续清理
func (r *Registry) Put(id string, result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry{
		result:    result,
		createdAt: time.Now(),
	}
}

// Remove 移除并清理指定的渲染结果
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		entry.result.Cleanup()
	}
}

// Len 当前登记的工作区数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep 清理存活时间超过 ttl 的工作区，返回清理数量
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	var expired []*registryEntry
	for id, entry := range r.entries {
		if entry.createdAt.Before(cutoff) {
			expired = append(expired, entry)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range expired {
		entry.result.Cleanup()
	}
	if len(expired) > 0 {
		logger.Infof("清理过期渲染工作区: %d 个", len(expired))
	}
	return len(expired)
}

// StartSweeper 启动后台清理协程，按 interval 周期扫描
func (r *Registry) StartSweeper(ttl, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep(ttl)
			case <-r.done:
				return
			}
		}
	}()
}

// Drain 停止后台清理并同步清掉所有剩余工作区，用于优雅关停
func (r *Registry) Drain() {
	r.once.Do(func() { close(r.done) })

	r.mu.Lock()
	remaining := make([]*registryEntry, 0, len(r.entries))
	for id, entry := range r.entries {
		remaining = append(remaining, entry)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	for _, entry := range remaining {
		entry.result.Cleanup()
	}
	if len(remaining) > 0 {
		logger.Infof("关停清理渲染工作区: %d 个", len(remaining))
	}
}
