package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeError(t *testing.T) {
	err := Capacity.Printf("cap=%d", 8)
	require.Equal(t, "CAPACITY_EXHAUSTED,cap=8", err.Error())
	assert.True(t, errors.Is(err, Capacity))
	assert.False(t, errors.Is(err, NotFound))
	assert.Equal(t, int32(ErrCode_Capacity), err.Code())

	err = Config.Print("levels", "dim")
	assert.Equal(t, "INVALID_CONFIG,levels,dim", err.Error())
	assert.Same(t, Config, Config.Print())
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil))
	assert.Equal(t, int32(ErrCode_Unknown), WrapError(io.EOF).Code())
	assert.Same(t, Range, WrapError(Range))
	assert.Equal(t, int32(ErrCode_OK), CodeOf(nil))
	assert.Equal(t, int32(ErrCode_Empty), CodeOf(Empty.Printf("x")))
}

func TestErrorChain(t *testing.T) {
	err := fmt.Errorf("module server init error: %w", Range.Printf("d=%v", "1h"))
	assert.True(t, errors.Is(err, Range))
	assert.Equal(t, int32(ErrCode_Range), CodeOf(err))

	err = Config.Print("tmrkit.json").Wrap(io.ErrUnexpectedEOF)
	assert.Equal(t, "INVALID_CONFIG,tmrkit.json: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, Config))
	assert.Same(t, Config, Config.Wrap(nil))

	assert.Equal(t, "CAPACITY_EXHAUSTED,a,b", Capacity.Printf("a").Print("b").Error())
	assert.Equal(t, "UNKNOWN: EOF", WrapError(io.EOF).Error())
}

func TestFromCode(t *testing.T) {
	assert.Same(t, NotFound, FromCode(ErrCode_NotFound))
	assert.Same(t, Protocol, FromCode(ErrCode_Protocol))
	e := FromCode(99)
	assert.Equal(t, int32(99), e.Code())
	assert.Equal(t, "CODE_99", e.Error())
}
