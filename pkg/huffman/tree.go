package huffman

import (
	"container/heap"
)

// FrequencyTable counts how often each byte value occurs in one chunk.
type FrequencyTable [256]int

// Tally counts the bytes of data.
func Tally(data []byte) FrequencyTable {
	var f FrequencyTable
	for _, b := range data {
		f[b]++
	}
	return f
}

// Distinct returns the number of byte values that occur at least once.
func (f *FrequencyTable) Distinct() int {
	n := 0
	for _, c := range f {
		if c > 0 {
			n++
		}
	}
	return n
}

// node is one entry of the tree arena. Leaves have left == right == -1.
type node struct {
	count  int
	symbol byte
	left   int
	right  int
}

func (n *node) isLeaf() bool {
	return n.left < 0
}

// Tree is a Huffman tree stored as an arena of nodes addressed by index. Leaves occupy the
// first slots in ascending byte order and internal nodes follow in merge order, so the arena
// index doubles as the tie-break between nodes of equal count.
type Tree struct {
	nodes []node
	root  int
}

// nodeHeap orders arena indices by count, then by index.
type nodeHeap struct {
	t   *Tree
	idx []int
}

func (h *nodeHeap) Len() int { return len(h.idx) }
func (h *nodeHeap) Less(i, j int) bool {
	a, b := &h.t.nodes[h.idx[i]], &h.t.nodes[h.idx[j]]
	if a.count != b.count {
		return a.count < b.count
	}
	return h.idx[i] < h.idx[j]
}
func (h *nodeHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *nodeHeap) Push(x any)   { h.idx = append(h.idx, x.(int)) }
func (h *nodeHeap) Pop() any {
	n := len(h.idx)
	x := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return x
}

// BuildTree merges the two lowest-count nodes until a single root remains. The node popped
// first becomes the left child. It returns nil when the table is all zeros.
func BuildTree(freq *FrequencyTable) *Tree {
	t := &Tree{nodes: make([]node, 0, 511)}
	for s, c := range freq {
		if c > 0 {
			t.nodes = append(t.nodes, node{count: c, symbol: byte(s), left: -1, right: -1})
		}
	}
	if len(t.nodes) == 0 {
		return nil
	}

	h := &nodeHeap{t: t, idx: make([]int, len(t.nodes))}
	for i := range h.idx {
		h.idx[i] = i
	}
	heap.Init(h)
	for h.Len() > 1 {
		a := heap.Pop(h).(int)
		b := heap.Pop(h).(int)
		t.nodes = append(t.nodes, node{
			count: t.nodes[a].count + t.nodes[b].count,
			left:  a,
			right: b,
		})
		heap.Push(h, len(t.nodes)-1)
	}
	t.root = heap.Pop(h).(int)
	return t
}

// Weight is the summed count of the whole tree, i.e. the chunk length.
func (t *Tree) Weight() int {
	return t.nodes[t.root].count
}

// Leaves is the number of distinct symbols in the tree.
func (t *Tree) Leaves() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].isLeaf() {
			n++
		}
	}
	return n
}

// Depth returns the depth of the leaf holding symbol, or -1 if the symbol is absent.
func (t *Tree) Depth(symbol byte) int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := &t.nodes[i]
		if n.isLeaf() {
			if n.symbol == symbol {
				return d
			}
			return -1
		}
		if r := walk(n.left, d+1); r >= 0 {
			return r
		}
		return walk(n.right, d+1)
	}
	return walk(t.root, 0)
}
