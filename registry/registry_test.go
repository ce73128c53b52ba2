package registry

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestGetDistinguishesMissingFromTimeout(t *testing.T) {
	r := New[string, int]()
	r.Update("a", 1)

	res := r.Get("a", time.Second)
	assert.True(t, res.Found())
	assert.Equal(t, 1, res.Value)
	assert.Nil(t, res.Err())

	res = r.Get("missing", time.Second)
	assert.Equal(t, NotFound, res.Status)
	assert.Equal(t, ErrNotFound, res.Err())

	r.lock()
	res = r.Get("a", 10*time.Millisecond)
	r.unlock()
	assert.Equal(t, TimedOut, res.Status)
	assert.Equal(t, ErrLockTimeout, res.Err())
}

func TestZeroTimeoutTriesOnce(t *testing.T) {
	r := New[int, string]()
	r.Add(1, "x")
	assert.True(t, r.Get(1, 0).Found())

	r.lock()
	assert.Equal(t, TimedOut, r.Get(1, 0).Status)
	assert.Equal(t, TimedOut, r.Pop(1, 0).Status)
	r.unlock()
	assert.Equal(t, 1, r.Len())
}

func TestPop(t *testing.T) {
	r := New[int, string]()
	r.Add(1, "x")
	res := r.Pop(1, time.Second)
	assert.True(t, res.Found())
	assert.Equal(t, "x", res.Value)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, NotFound, r.Pop(1, time.Second).Status)
}

func TestModify(t *testing.T) {
	r := New[string, int]()
	st := r.Modify("n", time.Second, func(v int) int {
		t.Error("fn called for an absent key")
		return v + 1
	})
	assert.Equal(t, NotFound, st)
	assert.Equal(t, 0, r.Len(), "absent keys are not inserted")

	r.Add("n", 1)
	st = r.Modify("n", time.Second, func(v int) int { return v + 1 })
	assert.Equal(t, Found, st)
	assert.Equal(t, 2, r.Get("n", time.Second).Value)

	r.lock()
	assert.Equal(t, TimedOut, r.Modify("n", 5*time.Millisecond, func(v int) int { return v + 100 }))
	r.unlock()
	assert.Equal(t, 2, r.Get("n", time.Second).Value)
}

func TestConcurrentModify(t *testing.T) {
	r := New[string, int]()
	r.Add("count", 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Modify("count", time.Minute, func(v int) int { return v + 1 })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, r.Get("count", time.Second).Value)
}

func TestItemsIsSnapshot(t *testing.T) {
	r := New[int, int]()
	for i := 0; i < 5; i++ {
		r.Add(i, i*i)
	}
	items := r.Items()
	r.Remove(0)
	assert.Len(t, items, 5)
	assert.Equal(t, 4, r.Len())

	keys := r.Keys()
	sort.Ints(keys)
	assert.Equal(t, []int{1, 2, 3, 4}, keys)
}

func Test_RegistryMatchesMap(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("Len and Items agree with the distinct keys written", prop.ForAll(
		func(keys []int) bool {
			r := New[int, int]()
			expected := map[int]int{}
			for i, k := range keys {
				r.Update(k, i)
				expected[k] = i
			}
			if r.Len() != len(expected) {
				return false
			}
			for _, e := range r.Items() {
				if expected[e.Key] != e.Value {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))
	properties.Property("Pop removes exactly one entry", prop.ForAll(
		func(keys []int, target int) bool {
			r := New[int, bool]()
			for _, k := range keys {
				r.Add(k, true)
			}
			before := r.Len()
			res := r.Pop(target, time.Second)
			if res.Found() {
				return r.Len() == before-1
			}
			return r.Len() == before
		},
		gen.SliceOf(gen.IntRange(0, 10)),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
