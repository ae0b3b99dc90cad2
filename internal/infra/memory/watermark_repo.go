package memory

import "sync"

// WatermarkRepo — потокобезопасная замена sqlite-репозитория для тестов.
type WatermarkRepo struct {
	mu  sync.RWMutex
	idx int
	set bool
}

func NewWatermarkRepo() *WatermarkRepo {
	return &WatermarkRepo{}
}

func (r *WatermarkRepo) Get() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.set {
		return -1
	}
	return r.idx
}

func (r *WatermarkRepo) Set(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = idx
	r.set = true
	return nil
}
