package staticlist

import "cmp"

// List 基于StaticList的双向链表，链接是槽位下标，Nil表示没有元素
// 所有操作都不分配内存，容量在构造时确定
type List[T any] struct {
	pool *StaticList[T]
	head int
	tail int
}

func NewList[T any](cap int) *List[T] {
	l := &List[T]{pool: NewStaticList[T](cap)}
	l.head = l.pool.Nil()
	l.tail = l.pool.Nil()
	return l
}

func (l *List[T]) Nil() int      { return l.pool.Nil() }
func (l *List[T]) Len() int      { return l.pool.Len() }
func (l *List[T]) Cap() int      { return l.pool.Cap() }
func (l *List[T]) IsEmpty() bool { return l.head == l.pool.Nil() }
func (l *List[T]) IsFull() bool  { return l.pool.Len() == l.pool.Cap() }
func (l *List[T]) Front() int    { return l.head }
func (l *List[T]) Back() int     { return l.tail }

// Valid 链接是否指向一个在用的元素
func (l *List[T]) Valid(p int) bool { return l.pool.IsUsed(p) }

// Gen 槽位的代数，配合链接识别过期句柄
func (l *List[T]) Gen(p int) uint32 { return l.pool.Gen(p) }

func (l *List[T]) Next(p int) int {
	if !l.pool.IsUsed(p) {
		return l.pool.Nil()
	}
	return l.pool.datas[p].Next
}

func (l *List[T]) Prev(p int) int {
	if !l.pool.IsUsed(p) {
		return l.pool.Nil()
	}
	return l.pool.datas[p].Prev
}

// Get 调用者保证p有效
func (l *List[T]) Get(p int) T {
	return l.pool.datas[p].Data
}

func (l *List[T]) Set(p int, v T) {
	l.pool.datas[p].Data = v
}

func (l *List[T]) Pointer(p int) *T {
	return &l.pool.datas[p].Data
}

func (l *List[T]) PushFront(v T) bool {
	return l.Insert(l.head, v) != l.pool.Nil()
}

func (l *List[T]) PushBack(v T) bool {
	return l.Insert(l.pool.Nil(), v) != l.pool.Nil()
}

func (l *List[T]) PopFront() (v T, ok bool) {
	if l.IsEmpty() {
		return
	}
	v = l.pool.datas[l.head].Data
	l.Erase(l.head)
	return v, true
}

func (l *List[T]) PopBack() (v T, ok bool) {
	if l.IsEmpty() {
		return
	}
	v = l.pool.datas[l.tail].Data
	l.Erase(l.tail)
	return v, true
}

// Insert 在pos之前插入，pos为Nil时插入到尾部；满了返回Nil
func (l *List[T]) Insert(pos int, v T) int {
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
	l.link(p, pos)
	return p
}

// link 把已分配的p挂到pos之前
func (l *List[T]) link(p, pos int) {
	end := l.pool.Nil()
	node := &l.pool.datas[p]
	var prev int
	if pos == end {
		prev = l.tail
		l.tail = p
	} else {
		prev = l.pool.datas[pos].Prev
		l.pool.datas[pos].Prev = p
	}
	if prev == end {
		l.head = p
	} else {
		l.pool.datas[prev].Next = p
	}
	node.Prev = prev
	node.Next = pos
}

// unlink 摘下p，不归还槽位
func (l *List[T]) unlink(p int) {
	end := l.pool.Nil()
	node := &l.pool.datas[p]
	if node.Prev == end {
		l.head = node.Next
	} else {
		l.pool.datas[node.Prev].Next = node.Next
	}
	if node.Next == end {
		l.tail = node.Prev
	} else {
		l.pool.datas[node.Next].Prev = node.Prev
	}
	node.Prev = end
	node.Next = end
}

// Erase 删除pos，返回它的后继；pos无效时返回Nil
func (l *List[T]) Erase(pos int) int {
	if !l.pool.IsUsed(pos) {
		return l.pool.Nil()
	}
	next := l.pool.datas[pos].Next
	l.unlink(pos)
	l.pool.Free(pos)
	return next
}

func (l *List[T]) Clear() {
	for !l.IsEmpty() {
		l.Erase(l.head)
	}
}

// Contains 线性查找链接是否在表中
func (l *List[T]) Contains(p int) bool {
	for it := l.head; it != l.pool.Nil(); it = l.pool.datas[it].Next {
		if it == p {
			return true
		}
	}
	return false
}

// Range 遍历链表中的节点, fn不能修改链表
func (l *List[T]) Range(fn func(p int, v *T) bool) {
	for it := l.head; it != l.pool.Nil(); it = l.pool.datas[it].Next {
		if !fn(it, &l.pool.datas[it].Data) {
			break
		}
	}
}

// RemoveFunc 删除所有满足pred的元素，返回删除个数
func (l *List[T]) RemoveFunc(pred func(v T) bool) int {
	n := 0
	for it := l.head; it != l.pool.Nil(); {
		next := l.pool.datas[it].Next
		if pred(l.pool.datas[it].Data) {
			l.Erase(it)
			n++
		}
		it = next
	}
	return n
}

// UniqueFunc 相邻的重复元素只保留第一个，eq(当前, 保留的)
func (l *List[T]) UniqueFunc(eq func(v, kept T) bool) int {
	if l.IsEmpty() {
		return 0
	}
	n := 0
	kept := l.head
	for it := l.pool.datas[kept].Next; it != l.pool.Nil(); {
		next := l.pool.datas[it].Next
		if eq(l.pool.datas[it].Data, l.pool.datas[kept].Data) {
			l.Erase(it)
			n++
		} else {
			kept = it
		}
		it = next
	}
	return n
}

// Reverse 原地翻转，链接仍然指向原来的值
func (l *List[T]) Reverse() {
	for it := l.head; it != l.pool.Nil(); {
		node := &l.pool.datas[it]
		node.Next, node.Prev = node.Prev, node.Next
		it = node.Prev
	}
	l.head, l.tail = l.tail, l.head
}

// SortFunc 选择排序，每次把剩余部分的最小值摘下来接到已排序部分之后
// O(n²)，稳定，不需要额外空间
func (l *List[T]) SortFunc(less func(a, b T) bool) {
	end := l.pool.Nil()
	for pos := l.head; pos != end; {
		least := pos
		for it := l.pool.datas[pos].Next; it != end; it = l.pool.datas[it].Next {
			if less(l.pool.datas[it].Data, l.pool.datas[least].Data) {
				least = it
			}
		}
		if least == pos {
			pos = l.pool.datas[pos].Next
			continue
		}
		l.unlink(least)
		l.link(least, pos)
	}
}

func Remove[T comparable](l *List[T], v T) int {
	return l.RemoveFunc(func(x T) bool { return x == v })
}

func Unique[T comparable](l *List[T]) int {
	return l.UniqueFunc(func(a, b T) bool { return a == b })
}

func Sort[T cmp.Ordered](l *List[T]) {
	l.SortFunc(cmp.Less[T])
}
