package apply

import (
	"container/heap"

	"github.com/tidyarr/tidyarr/internal/plan"
)

// resolvedMove pairs a planned move with its resolved src/dst paths.
type resolvedMove struct {
	move plan.Move
	src  string
	dst  string
}

// intHeap is a min-heap of batch indexes, so ties between ready moves
// are broken by original batch order.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// scheduleOrder computes an execution order for the batch such that no
// move overwrites a path another move still needs to read. Move X
// depends on move Y when Y.src == X.dst: whatever occupies X's
// destination must be relocated first. Kahn's algorithm with a
// min-index heap keeps the order deterministic. Returns ErrCycle when
// the batch cannot be linearized.
func scheduleOrder(batch []resolvedMove) ([]int, error) {
	srcToIdx := make(map[string]int, len(batch))
	for i, rm := range batch {
		if _, ok := srcToIdx[rm.src]; !ok {
			srcToIdx[rm.src] = i
		}
	}

	adjacency := make([][]int, len(batch))
	indegree := make([]int, len(batch))
	for i, rm := range batch {
		dep, ok := srcToIdx[rm.dst]
		if !ok || dep == i {
			continue
		}
		adjacency[dep] = append(adjacency[dep], i)
		indegree[i]++
	}

	ready := &intHeap{}
	for i, deg := range indegree {
		if deg == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(batch))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, dep := range adjacency[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				heap.Push(ready, dep)
			}
		}
	}

	if len(order) != len(batch) {
		return nil, ErrCycle
	}
	return order, nil
}
