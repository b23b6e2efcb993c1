package timer

import (
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// Nullifier LeanMill删除定时器时不移动元素，只把槽位原地标记为无效。
// Nullify把*id置为无效值，返回置之前它是否有效
type Nullifier[ID any] interface {
	Nullify(id *ID) bool
}

type NullifyFunc[ID any] func(id *ID) bool

func (f NullifyFunc[ID]) Nullify(id *ID) bool {
	return f(id)
}

// SentinelNullifier 用一个保留值表示无效，这个值不能作为定时器id
type SentinelNullifier[ID comparable] struct {
	Sentinel ID
}

func (n SentinelNullifier[ID]) Nullify(id *ID) bool {
	if *id == n.Sentinel {
		return false
	}
	*id = n.Sentinel
	return true
}

func UUIDNullifier() SentinelNullifier[uuid.UUID] {
	return SentinelNullifier[uuid.UUID]{Sentinel: uuid.Nil}
}

func XIDNullifier() SentinelNullifier[xid.ID] {
	return SentinelNullifier[xid.ID]{Sentinel: xid.NilID()}
}
