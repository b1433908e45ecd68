package huffman

import (
	"fmt"
	"sort"
	"strings"
)

// MaxCodeLength bounds a code in the record format. A tree over 256 symbols is at most 255 deep.
const MaxCodeLength = 255

// CodeTable maps byte values to their code, written as a string of '0' and '1' characters.
type CodeTable map[byte]string

// DeriveCodes walks the tree depth first, appending '0' for a left and '1' for a right
// descent. A tree with a single leaf gets the one-bit code "0": an empty code could not be
// told apart from no code at all when decoding.
func DeriveCodes(t *Tree) (CodeTable, error) {
	if t == nil || len(t.nodes) == 0 {
		return nil, ErrNilTree
	}
	codes := make(CodeTable, t.Leaves())
	root := &t.nodes[t.root]
	if root.isLeaf() {
		codes[root.symbol] = "0"
		return codes, nil
	}
	t.assign(t.root, make([]byte, 0, 32), codes)
	return codes, nil
}

func (t *Tree) assign(i int, prefix []byte, codes CodeTable) {
	n := &t.nodes[i]
	if n.isLeaf() {
		codes[n.symbol] = string(prefix)
		return
	}
	t.assign(n.left, append(prefix, '0'), codes)
	t.assign(n.right, append(prefix, '1'), codes)
}

// Symbols returns the table's byte values in ascending order.
func (ct CodeTable) Symbols() []byte {
	syms := make([]byte, 0, len(ct))
	for s := range ct {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// Cost is the number of bits needed to encode a chunk with the given frequencies.
func (ct CodeTable) Cost(freq *FrequencyTable) int {
	bits := 0
	for s, code := range ct {
		bits += freq[s] * len(code)
	}
	return bits
}

// IsPrefixFree reports whether no code is a prefix of another one (or equal to it).
func (ct CodeTable) IsPrefixFree() bool {
	codes := make([]string, 0, len(ct))
	for _, c := range ct {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	// In sorted order a code that prefixes others is immediately followed by one of them.
	for i := 1; i < len(codes); i++ {
		if strings.HasPrefix(codes[i], codes[i-1]) {
			return false
		}
	}
	return true
}

// Validate checks what a decoder relies on: at least one entry, binary codes of sane length,
// and the prefix property.
func (ct CodeTable) Validate() error {
	if len(ct) == 0 {
		return fmt.Errorf("%w: empty code table", ErrMalformedRecord)
	}
	for s, code := range ct {
		if len(code) == 0 || len(code) > MaxCodeLength {
			return fmt.Errorf("%w: code for byte 0x%02x has length %d", ErrMalformedRecord, s, len(code))
		}
		if strings.Trim(code, "01") != "" {
			return fmt.Errorf("%w: code for byte 0x%02x is not binary: %q", ErrMalformedRecord, s, code)
		}
	}
	if !ct.IsPrefixFree() {
		return fmt.Errorf("%w: code table is not prefix-free", ErrMalformedRecord)
	}
	return nil
}

// trieNode is one node of the decode trie. Index 0 is the root, so a zero child means "absent".
type trieNode struct {
	child  [2]int32
	symbol byte
	leaf   bool
}

// decodeTrie is the inverse of a CodeTable: following bits from the root reaches a leaf exactly
// when the bits read so far equal one complete code.
type decodeTrie struct {
	nodes []trieNode
}

func newDecodeTrie(ct CodeTable) (*decodeTrie, error) {
	if len(ct) == 0 {
		return nil, fmt.Errorf("%w: empty code table", ErrMalformedRecord)
	}
	d := &decodeTrie{nodes: make([]trieNode, 1, 2*len(ct))}
	for _, s := range ct.Symbols() {
		code := ct[s]
		if len(code) == 0 {
			return nil, fmt.Errorf("%w: empty code for byte 0x%02x", ErrMalformedRecord, s)
		}
		cur := int32(0)
		for i := 0; i < len(code); i++ {
			if d.nodes[cur].leaf {
				return nil, fmt.Errorf("%w: code table is not prefix-free", ErrMalformedRecord)
			}
			var b int
			switch code[i] {
			case '0':
				b = 0
			case '1':
				b = 1
			default:
				return nil, fmt.Errorf("%w: code for byte 0x%02x is not binary: %q", ErrMalformedRecord, s, code)
			}
			if d.nodes[cur].child[b] == 0 {
				d.nodes = append(d.nodes, trieNode{})
				d.nodes[cur].child[b] = int32(len(d.nodes) - 1)
			}
			cur = d.nodes[cur].child[b]
		}
		n := &d.nodes[cur]
		if n.leaf || n.child[0] != 0 || n.child[1] != 0 {
			return nil, fmt.Errorf("%w: code table is not prefix-free", ErrMalformedRecord)
		}
		n.leaf = true
		n.symbol = s
	}
	return d, nil
}
