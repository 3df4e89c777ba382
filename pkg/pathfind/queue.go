package pathfind

import "github.com/OpenTraceLab/circuitwire/pkg/geom"

// node is an entry in the A* frontier.
type node struct {
	point  geom.Point
	parent geom.Point
	dir    direction
	root   bool
	length int
	turns  int
	score  int
	seq    uint64
	index  int
}

// nodeQueue implements heap.Interface ordered by score, then insertion order.
type nodeQueue []*node

func (pq nodeQueue) Len() int { return len(pq) }

func (pq nodeQueue) Less(i, j int) bool {
	if pq[i].score != pq[j].score {
		return pq[i].score < pq[j].score
	}
	return pq[i].seq < pq[j].seq
}

func (pq nodeQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *nodeQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
