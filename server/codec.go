package server

import (
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/fixkme/tmrkit/errs"
)

// 报文格式：4字节小端长度 + protobuf编码的消息体
const msgLenSize = 4

type Op int32

const (
	OpPing       Op = 1
	OpStart      Op = 2 // 同名定时器已存在时重新计时
	OpStop       Op = 3
	OpStopFirst  Op = 4
	OpStopPrefix Op = 5
)

func (op Op) String() string {
	switch op {
	case OpPing:
		return "ping"
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpStopFirst:
		return "stop_first"
	case OpStopPrefix:
		return "stop_prefix"
	}
	return "unknown"
}

type Kind int32

const (
	KindReply   Kind = 1
	KindExpired Kind = 2 // 服务端主动推送
)

type Request struct {
	Seq        uint32
	Op         Op
	Name       string
	DurationMs int64
}

type Reply struct {
	Seq   uint32
	Kind  Kind
	Code  int32
	Name  string
	Count int32
}

func (r *Request) AppendTo(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Seq))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Op))
	if r.Name != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, r.Name)
	}
	if r.DurationMs != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(r.DurationMs))
	}
	return b
}

func (r *Request) Unmarshal(b []byte) error {
	*r = Request{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Seq = uint32(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Op = Op(v)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.Name = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.DurationMs = protowire.DecodeZigZag(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (r *Reply) AppendTo(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Seq))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Kind))
	if r.Code != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Code))
	}
	if r.Name != "" {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, r.Name)
	}
	if r.Count != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Count))
	}
	return b
}

func (r *Reply) Unmarshal(b []byte) error {
	*r = Reply{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case 1:
				r.Seq = uint32(v)
			case 2:
				r.Kind = Kind(v)
			case 3:
				r.Code = int32(v)
			case 5:
				r.Count = int32(v)
			}
			return n, nil
		}
		if num == 4 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			r.Name = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// consumeFields 逐个字段回调，未知字段由回调跳过
func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errs.Protocol.Printf("bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return errs.Protocol.Printf("bad field %d: %v", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

type appender interface {
	AppendTo(b []byte) []byte
}

// AppendFrame 追加长度前缀和消息体
func AppendFrame(dst []byte, m appender) []byte {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)
	dst = m.AppendTo(dst)
	binary.LittleEndian.PutUint32(dst[start:], uint32(len(dst)-start-msgLenSize))
	return dst
}

// SplitFrame 从buf头部切出一个完整报文；数据不够时n为0
func SplitFrame(buf []byte, maxSize int) (payload []byte, n int, err error) {
	if len(buf) < msgLenSize {
		return nil, 0, nil
	}
	size := int(binary.LittleEndian.Uint32(buf))
	if size > maxSize {
		return nil, 0, errs.Protocol.Printf("frame size %d exceeds %d", size, maxSize)
	}
	if len(buf) < msgLenSize+size {
		return nil, 0, nil
	}
	return buf[msgLenSize : msgLenSize+size], msgLenSize + size, nil
}
