// Package cluster describes the hosts a run can use and how they are discovered.
// Discovery itself (ping sweeps, inventory queries) is delegated to Fetchers.
package cluster

//go:generate mockgen -source=fetcher.go -package=cluster -destination=fetcher_mock.go

import (
	"errors"
	"sync"
)

var ErrNoNodes = errors.New("node discovery returned no nodes")

// Fetcher returns the full list of currently reachable nodes.
type Fetcher interface {
	Fetch() ([]Node, error)
}

// MakeStaticFetcher returns a Fetcher that always reports the given hosts.
func MakeStaticFetcher(hosts ...string) Fetcher {
	nodes := make([]Node, 0, len(hosts))
	for _, h := range hosts {
		nodes = append(nodes, NewIdNode(h))
	}
	return &staticFetcher{nodes: nodes}
}

type staticFetcher struct {
	nodes []Node
}

func (f *staticFetcher) Fetch() ([]Node, error) {
	return append([]Node(nil), f.nodes...), nil
}

// FakeFetcher is a Fetcher whose result can be changed while in use.
type FakeFetcher struct {
	mutex sync.Mutex
	nodes []Node
	err   error
	calls int
}

func NewFakeFetcher(hosts ...string) *FakeFetcher {
	f := &FakeFetcher{}
	f.SetHosts(hosts...)
	return f
}

func (f *FakeFetcher) Fetch() ([]Node, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	return append([]Node(nil), f.nodes...), f.err
}

func (f *FakeFetcher) SetHosts(hosts ...string) {
	nodes := []Node{}
	for _, h := range hosts {
		nodes = append(nodes, NewIdNode(h))
	}
	f.SetResult(nodes, nil)
}

func (f *FakeFetcher) SetResult(nodes []Node, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nodes = nodes
	f.err = err
}

func (f *FakeFetcher) Calls() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}
