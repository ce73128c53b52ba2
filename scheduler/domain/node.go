package domain

// Node is a host known reachable when the run started. Failures counts job runs
// on this host that did not succeed; it is reported, never acted on.
type Node struct {
	Hostname string
	Failures int
}

func NewNode(hostname string) Node {
	return Node{Hostname: hostname}
}
