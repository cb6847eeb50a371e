// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispatch implements the runtime half of the instruction decoder: a
// forest of bitmap-indexed nodes that maps a 32-bit instruction word to a
// dense operation identifier.
//
// Each node examines one bit field of the word. Bit i of a node's Leaves
// bitmap is set when field value i resolves directly to an operation; bit i
// of its Subtables bitmap is set when value i continues the walk at a child
// node. Leaves and children are stored compactly, so the index of the entry
// for value i is the node's base offset plus the rank of bit i in the
// corresponding bitmap, minus one.
package dispatch

import "math/bits"

// An OpID is a dense operation identifier assigned by the table compiler.
type OpID uint32

// Invalid is the reserved identifier for words that match no operation.
const Invalid OpID = 0

// MaxWidth is the widest bit field a node may examine. A node therefore
// never has more than 64 slots, one per bitmap bit.
const MaxWidth = 6

// A Node is one table of the dispatch forest.
type Node struct {
	Leaves     uint64 // slot i resolves to an operation
	Subtables  uint64 // slot i descends into a child node
	OpStart    uint32 // OpID of the node's first leaf
	ChildStart uint32 // index of the node's first child
	Shift      uint8  // position of the examined field
	Width      uint8  // size of the examined field, 1-6 bits
}

// Field extracts the 'width'-bit field located 'shift' bits from the least
// significant end of 'word'.
func Field(word uint32, shift, width uint) uint32 {
	return (word >> shift) & (1<<width - 1)
}

// Rank returns the number of bits set in 'bitmap' at positions 0 through
// 'i', inclusive.
func Rank(bitmap uint64, i uint) int {
	return bits.OnesCount64(bitmap & (uint64(2)<<i - 1))
}

// Slot returns the field value this node examines in 'word'.
func (n *Node) Slot(word uint32) uint {
	return uint(Field(word, uint(n.Shift), uint(n.Width)))
}

// IsLeaf returns true if slot 'i' resolves directly to an operation.
func (n *Node) IsLeaf(i uint) bool {
	return n.Leaves&(1<<i) != 0
}

// IsSubtable returns true if slot 'i' descends into a child node.
func (n *Node) IsSubtable(i uint) bool {
	return n.Subtables&(1<<i) != 0
}

// Op returns the operation assigned to leaf slot 'i'. The slot must be a
// leaf.
func (n *Node) Op(i uint) OpID {
	return OpID(n.OpStart) + OpID(Rank(n.Leaves, i)) - 1
}

// Child returns the node index assigned to subtable slot 'i'. The slot must
// be a subtable.
func (n *Node) Child(i uint) int {
	return int(n.ChildStart) + Rank(n.Subtables, i) - 1
}

// A Miss describes where a lookup failed to find an operation.
type Miss struct {
	Node  int    // index of the node that did not match
	Value uint32 // field value examined at that node
}

// Lookup walks the forest 'nodes', starting at the root node 0, and returns
// the operation identified by 'word'. It returns Invalid if some node along
// the way has neither a leaf nor a subtable for the word's field value.
func Lookup(nodes []Node, word uint32) OpID {
	id, _ := Resolve(nodes, word)
	return id
}

// Resolve is like Lookup but also reports the failing node when the word
// does not decode.
func Resolve(nodes []Node, word uint32) (OpID, *Miss) {
	i := 0
	for {
		n := &nodes[i]
		slot := n.Slot(word)
		switch {
		case n.IsLeaf(slot):
			return n.Op(slot), nil
		case n.IsSubtable(slot):
			i = n.Child(slot)
		default:
			return Invalid, &Miss{Node: i, Value: uint32(slot)}
		}
	}
}
