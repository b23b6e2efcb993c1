package staticlist

// Node 静态链表的槽位，空闲时通过Next串成空闲链表
type Node[T any] struct {
	Data T
	Next int
	Prev int
	Gen  uint32 // 每次Free后递增，用于识别过期的句柄
	used bool
}

// StaticList 固定容量的槽位池，Malloc/Free都是O(1)，构造之后不再分配内存
type StaticList[T any] struct {
	datas []Node[T]
	free  int
	len   int
	zero  T // 零值
}

func NewStaticList[T any](size int) *StaticList[T] {
	if size < 0 {
		size = 0
	}
	list := &StaticList[T]{
		datas: make([]Node[T], size),
	}
	list.Reset()
	return list
}

// Nil 空链接，等于容量
func (list *StaticList[T]) Nil() int {
	return len(list.datas)
}

func (list *StaticList[T]) Cap() int {
	return len(list.datas)
}

func (list *StaticList[T]) Len() int {
	return list.len
}

// Malloc 分配一个槽位，池满时返回Nil
func (list *StaticList[T]) Malloc() int {
	p := list.free
	if p == list.Nil() {
		return p
	}
	slot := &list.datas[p]
	list.free = slot.Next
	slot.Next = list.Nil()
	slot.Prev = list.Nil()
	slot.used = true
	list.len++
	return p
}

// Free 归还槽位，p越界或者已经空闲时返回false
func (list *StaticList[T]) Free(p int) bool {
	if !list.IsUsed(p) {
		return false
	}
	node := &list.datas[p]
	node.Data = list.zero
	node.Prev = list.Nil()
	node.Next = list.free
	node.Gen++
	node.used = false
	list.free = p
	list.len--
	return true
}

func (list *StaticList[T]) IsUsed(p int) bool {
	return p >= 0 && p < len(list.datas) && list.datas[p].used
}

func (list *StaticList[T]) Gen(p int) uint32 {
	if p < 0 || p >= len(list.datas) {
		return 0
	}
	return list.datas[p].Gen
}

func (list *StaticList[T]) GetNode(p int) *Node[T] {
	return &list.datas[p]
}

func (list *StaticList[T]) GetDataValue(p int) T {
	return list.datas[p].Data
}

func (list *StaticList[T]) SetDataValue(p int, val T) {
	list.datas[p].Data = val
}

func (list *StaticList[T]) GetDataPointer(p int) *T {
	return &list.datas[p].Data
}

// Reset 所有槽位回到空闲链表，i的后继是i+1，最后一个指向Nil
func (list *StaticList[T]) Reset() {
	size := len(list.datas)
	for i := 0; i < size; i++ {
		node := &list.datas[i]
		if node.used {
			node.Gen++
		}
		node.Data = list.zero
		node.Next = i + 1
		node.Prev = size
		node.used = false
	}
	list.free = 0
	list.len = 0
}
