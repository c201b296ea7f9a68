package submatrix

import (
	"encoding/binary"
	"fmt"
)

// Properties identifies one problem instance of the evaluation loop.
type Properties struct {
	Size, Density, Condition, Choice int
}

// Message is what the coordinator broadcasts at the start of a round: either
// Work or Shutdown.
type Message interface {
	isMessage()
}

// Work announces a round on the problem with the given properties. The
// matrix follows in three broadcasts.
type Work struct {
	Properties
}

// Shutdown ends the worker loop.
type Shutdown struct{}

func (Work) isMessage()     {}
func (Shutdown) isMessage() {}

const (
	tagShutdown byte = iota
	tagWork
)

const workMessageLength = 1 + 4*8

func EncodeMessage(m Message) []byte {
	switch m := m.(type) {
	case Work:
		buf := make([]byte, 1, workMessageLength)
		buf[0] = tagWork
		for _, x := range []int{m.Size, m.Density, m.Condition, m.Choice} {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(x)))
		}
		return buf
	case Shutdown:
		return []byte{tagShutdown}
	}
	panic(fmt.Sprintf("invalid message %T", m))
}

func DecodeMessage(buf []byte) (Message, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrBadArguments)
	}
	switch buf[0] {
	case tagShutdown:
		if len(buf) != 1 {
			return nil, fmt.Errorf("%w: shutdown message of %v bytes", ErrBadArguments, len(buf))
		}
		return Shutdown{}, nil
	case tagWork:
		if len(buf) != workMessageLength {
			return nil, fmt.Errorf("%w: work message of %v bytes", ErrBadArguments, len(buf))
		}
		var x [4]int
		for i := range x {
			x[i] = int(int64(binary.LittleEndian.Uint64(buf[1+8*i:])))
		}
		return Work{Properties{Size: x[0], Density: x[1], Condition: x[2], Choice: x[3]}}, nil
	}
	return nil, fmt.Errorf("%w: message tag %v", ErrBadArguments, buf[0])
}
