package optimize

import "container/heap"

// candidateHeap is a max-heap by score; equal scores prefer fewer pulls.
type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	return sum(h[i].Pulls) < sum(h[j].Pulls)
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)   { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// ranked pops up to k candidates in best-first order.
func (h *candidateHeap) ranked(k int) []Candidate {
	out := make([]Candidate, 0, min(k, h.Len()))
	for h.Len() > 0 && len(out) < k {
		out = append(out, heap.Pop(h).(Candidate))
	}
	return out
}
