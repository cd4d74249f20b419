package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type FakeDeduplicator struct {
	Claimed     map[string]time.Duration
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeDeduplicator() *FakeDeduplicator {
	return &FakeDeduplicator{Claimed: make(map[string]time.Duration)}
}

func (d *FakeDeduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if d.ReturnError {
		return false, fmt.Errorf("could not claim %s", key)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.Claimed[key]; ok {
		return false, nil
	}
	d.Claimed[key] = ttl
	return true, nil
}

func (d *FakeDeduplicator) Release(ctx context.Context, key string) error {
	if d.ReturnError {
		return fmt.Errorf("could not release %s", key)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.Claimed, key)
	return nil
}

func (d *FakeDeduplicator) IsClaimed(key string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, ok := d.Claimed[key]
	return ok
}
