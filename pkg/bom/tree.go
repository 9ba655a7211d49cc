package bom

import (
	"fmt"
	"slices"
)

// TreeEntries returns the entries of the tree stored under the variable
// name, in leaf-chain order. Keys and values alias the archive buffer.
func (a *Archive) TreeEntries(name string) ([]TreeEntry, error) {
	index, ok := a.Variable(name)
	if !ok {
		return nil, &TreeNotFoundError{Name: name}
	}
	return a.Tree(index)
}

// Tree returns the entries of the tree whose header is stored in block
// index.
func (a *Archive) Tree(index uint32) ([]TreeEntry, error) {
	b, err := a.block(index)
	if err != nil {
		return nil, err
	}
	th, err := ReadTreeHeader(b)
	if err != nil {
		return nil, err
	}
	return a.collect(th.Child)
}

// collect walks the node chain starting at node. Non-leaf nodes are
// descended through their first child only; leaves are followed through
// their forward pointers. Visiting any node twice is reported as
// ErrCorrupt.
func (a *Archive) collect(node uint32) ([]TreeEntry, error) {
	var entries []TreeEntry
	visited := make(map[uint32]struct{})
	for {
		if _, ok := visited[node]; ok {
			return nil, fmt.Errorf("%w: tree node %d visited twice", ErrCorrupt, node)
		}
		visited[node] = struct{}{}

		b, err := a.block(node)
		if err != nil {
			return nil, err
		}
		if len(b) < treeNodeHeaderSize {
			return nil, fmt.Errorf("%w: tree node %d", ErrDataOutOfBounds, node)
		}
		isLeaf := be.Uint16(b[0:2])
		count := int(be.Uint16(b[2:4]))
		forward := be.Uint32(b[4:8])

		if isLeaf == 0 {
			if count == 0 || len(b) < treeNodeHeaderSize+treeNodeEntrySize {
				return entries, nil
			}
			node = be.Uint32(b[treeNodeHeaderSize : treeNodeHeaderSize+4])
			continue
		}

		if treeNodeHeaderSize+count*treeNodeEntrySize > len(b) {
			return nil, fmt.Errorf("%w: leaf %d declares %d entries", ErrDataOutOfBounds, node, count)
		}
		for i := 0; i < count; i++ {
			off := treeNodeHeaderSize + i*treeNodeEntrySize
			value, err := a.block(be.Uint32(b[off : off+4]))
			if err != nil {
				return nil, err
			}
			key, err := a.block(be.Uint32(b[off+4 : off+8]))
			if err != nil {
				return nil, err
			}
			entries = append(entries, TreeEntry{Key: key, Value: value})
		}

		if forward == 0 {
			return entries, nil
		}
		node = forward
	}
}

// BuildTree stores entries as a chain of leaves under a new tree header
// and returns the header's block index. Entries keep their input order.
// The caller registers the returned index with AddVariable.
func (w *Writer) BuildTree(entries []TreeEntry) uint32 {
	var leaves []uint32
	for chunk := range slices.Chunk(entries, EntriesPerLeaf) {
		leaves = append(leaves, w.addLeaf(chunk))
	}
	if len(leaves) == 0 {
		leaves = append(leaves, w.addLeaf(nil))
	}
	for i := 0; i+1 < len(leaves); i++ {
		be.PutUint32(w.blocks[leaves[i]][4:8], leaves[i+1])
	}

	th := TreeHeader{
		Version:   1,
		Child:     leaves[0],
		BlockSize: TreeBlockSize,
		PathCount: uint32(len(entries)),
	}
	return w.AddBlock(th.marshal())
}

func (w *Writer) addLeaf(chunk []TreeEntry) uint32 {
	n := treeNode{IsLeaf: 1, Entries: make([]treeNodeEntry, 0, len(chunk))}
	for _, e := range chunk {
		value := w.AddBlock(e.Value)
		key := w.AddBlock(e.Key)
		n.Entries = append(n.Entries, treeNodeEntry{Value: value, Key: key})
	}
	return w.AddBlock(n.marshal())
}
