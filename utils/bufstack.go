package utils

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// BufStack is a read cursor over a byte slice that remembers which
// structure ("kind") owns which byte range. Child spans opened with SubBuf
// form a tree that can be printed with StringTree.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	if bs.childs == nil {
		bs.childs = make([]*BufStack, 1)
		bs.childs[0] = childBs
	} else {
		index := sort.Search(len(bs.childs), func(i int) bool {
			return bs.childs[i].relativeOffset > childBs.relativeOffset
		})
		bs.childs = append(bs.childs, childBs)
		copy(bs.childs[index+1:], bs.childs[index:])
		bs.childs[index] = childBs
	}
}

// SubBuf opens a child span starting at offset (relative to bs).
// The child has no size until Close is called.
func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		buf:            bs.buf[offset:],
	}
	bs.addChild(childBs)
	return childBs
}

// Close fixes the child size to the amount consumed and advances the parent
// cursor past it.
func (bs *BufStack) Close() {
	bs.size = bs.pos
	if bs.parent != nil {
		bs.parent.pos = bs.relativeOffset + bs.pos
	}
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) Size() int {
	return bs.size
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		s += child.stringTree(pad + 1)
		if child.size != 0 {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 {
			end := child.relativeOffset + child.size
			if i == len(bs.childs)-1 {
				if bs.size > 0 && end > bs.size {
					s += fmt.Sprintf("%s. [OVERGROW]\n", sPad)
				}
			} else if end > bs.childs[i+1].relativeOffset {
				s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
			}
		}
	}
	return s
}

func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) Pos() int {
	return bs.pos
}

// AbsolutePos is the cursor position relative to the root buffer.
func (bs *BufStack) AbsolutePos() int {
	return bs.absoluteOffset + bs.pos
}

// Remaining is the number of unread bytes up to the end of the backing slice.
func (bs *BufStack) Remaining() int {
	return len(bs.buf) - bs.pos
}

// Read returns the next amount bytes. Callers check Remaining first.
func (bs *BufStack) Read(amount int) []byte {
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) Skip(amount int) {
	bs.pos += amount
	if bs.pos > len(bs.buf) {
		panic("skipped over buf")
	}
}

func (bs *BufStack) ReadLU64() uint64 {
	return binary.LittleEndian.Uint64(bs.Read(8))
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLU16() uint16 {
	return binary.LittleEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadByte() byte {
	return bs.Read(1)[0]
}
