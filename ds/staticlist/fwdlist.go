package staticlist

// FwdList 基于StaticList的单向链表，只使用Next
type FwdList[T any] struct {
	pool *StaticList[T]
	head int
}

func NewFwdList[T any](cap int) *FwdList[T] {
	l := &FwdList[T]{pool: NewStaticList[T](cap)}
	l.head = l.pool.Nil()
	return l
}

func (l *FwdList[T]) Nil() int      { return l.pool.Nil() }
func (l *FwdList[T]) Len() int      { return l.pool.Len() }
func (l *FwdList[T]) Cap() int      { return l.pool.Cap() }
func (l *FwdList[T]) IsEmpty() bool { return l.head == l.pool.Nil() }
func (l *FwdList[T]) Front() int    { return l.head }

func (l *FwdList[T]) Next(p int) int {
	if !l.pool.IsUsed(p) {
		return l.pool.Nil()
	}
	return l.pool.datas[p].Next
}

func (l *FwdList[T]) Get(p int) T {
	return l.pool.datas[p].Data
}

func (l *FwdList[T]) Set(p int, v T) {
	l.pool.datas[p].Data = v
}

func (l *FwdList[T]) PushFront(v T) bool {
	return l.InsertAfter(l.pool.Nil(), v) != l.pool.Nil()
}

func (l *FwdList[T]) PopFront() (v T, ok bool) {
	if l.IsEmpty() {
		return
	}
	p := l.head
	v = l.pool.datas[p].Data
	l.head = l.pool.datas[p].Next
	l.pool.Free(p)
	return v, true
}

// InsertAfter 插入到pos之后，pos为Nil时插入到表头；满了返回Nil
func (l *FwdList[T]) InsertAfter(pos int, v T) int {
	end := l.pool.Nil()
	if pos != end && !l.pool.IsUsed(pos) {
		return end
	}
	p := l.pool.Malloc()
	if p == end {
		return end
	}
	node := &l.pool.datas[p]
	node.Data = v
	if pos == end {
		node.Next = l.head
		l.head = p
	} else {
		node.Next = l.pool.datas[pos].Next
		l.pool.datas[pos].Next = p
	}
	return p
}

// EraseAfter 删除pos的后继，返回新的后继
func (l *FwdList[T]) EraseAfter(pos int) int {
	end := l.pool.Nil()
	if !l.pool.IsUsed(pos) {
		return end
	}
	after := l.pool.datas[pos].Next
	if after == end {
		return end
	}
	l.pool.datas[pos].Next = l.pool.datas[after].Next
	l.pool.Free(after)
	return l.pool.datas[pos].Next
}

func (l *FwdList[T]) Clear() {
	for !l.IsEmpty() {
		l.PopFront()
	}
}

func (l *FwdList[T]) Range(fn func(p int, v *T) bool) {
	for it := l.head; it != l.pool.Nil(); it = l.pool.datas[it].Next {
		if !fn(it, &l.pool.datas[it].Data) {
			break
		}
	}
}

func (l *FwdList[T]) RemoveFunc(pred func(v T) bool) int {
	n := 0
	for !l.IsEmpty() && pred(l.pool.datas[l.head].Data) {
		l.PopFront()
		n++
	}
	if l.IsEmpty() {
		return n
	}
	end := l.pool.Nil()
	prev := l.head
	for after := l.pool.datas[prev].Next; after != end; after = l.pool.datas[prev].Next {
		if pred(l.pool.datas[after].Data) {
			l.EraseAfter(prev)
			n++
		} else {
			prev = after
		}
	}
	return n
}

func (l *FwdList[T]) UniqueFunc(eq func(v, kept T) bool) int {
	if l.IsEmpty() {
		return 0
	}
	n := 0
	end := l.pool.Nil()
	kept := l.head
	for after := l.pool.datas[kept].Next; after != end; after = l.pool.datas[kept].Next {
		if eq(l.pool.datas[after].Data, l.pool.datas[kept].Data) {
			l.EraseAfter(kept)
			n++
		} else {
			kept = after
		}
	}
	return n
}

func (l *FwdList[T]) Reverse() {
	end := l.pool.Nil()
	before := end
	for it := l.head; it != end; {
		after := l.pool.datas[it].Next
		l.pool.datas[it].Next = before
		before = it
		it = after
	}
	l.head = before
}

// SortFunc 稳定的选择排序，通过重新链接实现
func (l *FwdList[T]) SortFunc(less func(a, b T) bool) {
	end := l.pool.Nil()
	sorted := end // 已排序部分的尾部
	for {
		first := l.head
		if sorted != end {
			first = l.pool.datas[sorted].Next
		}
		if first == end {
			return
		}
		least, leastPrev := first, sorted
		prev := first
		for it := l.pool.datas[first].Next; it != end; it = l.pool.datas[it].Next {
			if less(l.pool.datas[it].Data, l.pool.datas[least].Data) {
				least, leastPrev = it, prev
			}
			prev = it
		}
		if least != first {
			l.pool.datas[leastPrev].Next = l.pool.datas[least].Next
			l.pool.datas[least].Next = first
			if sorted == end {
				l.head = least
			} else {
				l.pool.datas[sorted].Next = least
			}
		}
		sorted = least
	}
}

func RemoveFwd[T comparable](l *FwdList[T], v T) int {
	return l.RemoveFunc(func(x T) bool { return x == v })
}

func UniqueFwd[T comparable](l *FwdList[T]) int {
	return l.UniqueFunc(func(a, b T) bool { return a == b })
}
