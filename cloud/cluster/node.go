package cluster

import (
	"sort"
)

type NodeId string

// Node is a host jobs can be sent to.
type Node interface {
	// Hostname or address the transport connects to.
	Id() NodeId

	// Free-form discovery detail, ex: the inventory group it came from.
	Status() string
}

type idNode struct {
	id     NodeId
	status string
}

func (n *idNode) String() string {
	return string(n.id)
}

func NewIdNode(id string) Node {
	return &idNode{id: NodeId(id)}
}

func NewIdStatusNode(id, status string) Node {
	return &idNode{id: NodeId(id), status: status}
}

func (n *idNode) Id() NodeId {
	return n.id
}

func (n *idNode) Status() string {
	return n.status
}

var _ Node = (*idNode)(nil)

type NodeSorter []Node

func (n NodeSorter) Len() int           { return len(n) }
func (n NodeSorter) Swap(i, j int)      { n[i], n[j] = n[j], n[i] }
func (n NodeSorter) Less(i, j int) bool { return n[i].Id() < n[j].Id() }

// Hostnames returns the distinct ids of nodes, sorted.
func Hostnames(nodes []Node) []string {
	sorted := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil && n.Id() != "" {
			sorted = append(sorted, n)
		}
	}
	sort.Sort(NodeSorter(sorted))

	hosts := []string{}
	for i, n := range sorted {
		if i > 0 && sorted[i-1].Id() == n.Id() {
			continue
		}
		hosts = append(hosts, string(n.Id()))
	}
	return hosts
}
