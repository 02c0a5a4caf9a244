package container

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
)

// DefaultShards is the shard count used when Options.Shards is unset
const DefaultShards = 32

type shard struct {
	sync.RWMutex
	m map[int64]int64
}

// ShardedMap spreads keys over independently locked shards selected by an
// fnv-64a hash of the key
type ShardedMap struct {
	shards []*shard
}

var _ Adapter = (*ShardedMap)(nil)

func NewShardedMap(count int) *ShardedMap {
	if count <= 0 {
		count = DefaultShards
	}

	sm := &ShardedMap{shards: make([]*shard, count)}
	for i := range sm.shards {
		sm.shards[i] = &shard{m: make(map[int64]int64)}
	}
	return sm
}

func hashKey(key int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}

func (sm *ShardedMap) shardFor(key int64) *shard {
	return sm.shards[hashKey(key)%uint64(len(sm.shards))]
}

func (sm *ShardedMap) Insert(key, value int64) bool {
	s := sm.shardFor(key)
	s.Lock()
	defer s.Unlock()

	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = value
	return true
}

func (sm *ShardedMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	s := sm.shardFor(key)
	s.Lock()
	defer s.Unlock()

	if _, ok := s.m[key]; ok {
		s.m[key] = value
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	s.m[key] = value
	return false, true
}

func (sm *ShardedMap) Find(key int64) (int64, bool) {
	s := sm.shardFor(key)
	s.RLock()
	defer s.RUnlock()

	v, ok := s.m[key]
	return v, ok
}

func (sm *ShardedMap) Erase(key int64) bool {
	s := sm.shardFor(key)
	s.Lock()
	defer s.Unlock()

	if _, ok := s.m[key]; !ok {
		return false
	}
	delete(s.m, key)
	return true
}

func (sm *ShardedMap) Contains(key int64) bool {
	_, ok := sm.Find(key)
	return ok
}

// Size sums the shards one at a time, so it is not a snapshot under concurrent writes
func (sm *ShardedMap) Size() int {
	total := 0
	for _, s := range sm.shards {
		s.RLock()
		total += len(s.m)
		s.RUnlock()
	}
	return total
}

func (sm *ShardedMap) Close() error { return nil }
