package analyser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferKeepsNewestBytes(t *testing.T) {
	rb := NewRingBuffer(4)
	n, err := rb.Write([]byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	rb.Write([]byte{4, 5})
	assert.Equal(t, 4, rb.Len())

	dst := make([]byte, 4)
	assert.Equal(t, 4, rb.Latest(dst))
	assert.Equal(t, []byte{2, 3, 4, 5}, dst)
}

func TestRingBufferOversizedWrite(t *testing.T) {
	rb := NewRingBuffer(3)
	n, _ := rb.Write([]byte{1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, 7, n)

	dst := make([]byte, 3)
	rb.Latest(dst)
	assert.Equal(t, []byte{5, 6, 7}, dst)
}

func TestRingBufferLatestPadsFront(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{9, 8})

	dst := []byte{0, 0, 0, 0}
	assert.Equal(t, 2, rb.Latest(dst))
	assert.Equal(t, []byte{0, 0, 9, 8}, dst)

	rb.Clear()
	assert.Equal(t, 0, rb.Len())
	assert.Equal(t, 0, rb.Latest(dst))
}

func TestRingBufferLastWrite(t *testing.T) {
	rb := NewRingBuffer(8)
	assert.True(t, rb.LastWrite().IsZero())

	rb.Write(nil)
	assert.True(t, rb.LastWrite().IsZero(), "empty writes are not activity")

	before := time.Now()
	rb.Write([]byte{1})
	assert.False(t, rb.LastWrite().Before(before))

	rb.Clear()
	assert.True(t, rb.LastWrite().IsZero())
}
