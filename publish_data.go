package rtevoked

import (
	"bytes"
	"encoding/binary"
	"fmt"

	czmq "github.com/zeromq/goczmq"
)

// EvokedPublisher broadcasts evoked snapshots over a ZeroMQ PUB socket: a
// Channeler goroutine owns the socket, and publishing is a channel send
// into its SendChan, which waits until the Channeler goroutine takes the
// message. A slow or absent subscriber never backs up the engine -- ZMQ PUB
// sockets drop rather than block, matching the lossy, latest-wins emission
// policy of §4.6.
type EvokedPublisher struct {
	pub *czmq.Channeler
}

// NewEvokedPublisher binds a PUB socket on the given TCP port.
func NewEvokedPublisher(port int) *EvokedPublisher {
	hostname := fmt.Sprintf("tcp://*:%d", port)
	return &EvokedPublisher{pub: czmq.NewPubChanneler(hostname)}
}

// Publish sends one binary-framed evoked message. A nil publisher or a nil
// receiver is a no-op, so callers can wire EvokedPublisher in optionally.
func (p *EvokedPublisher) Publish(ev *EvokedResult) {
	if p == nil || p.pub == nil || ev == nil {
		return
	}
	p.pub.SendChan <- messageEvoked(ev)
}

// Close tears down the PUB socket.
func (p *EvokedPublisher) Close() {
	if p == nil || p.pub == nil {
		return
	}
	p.pub.Destroy()
}

// messageEvoked frames one EvokedResult as a two-part ZMQ message, a
// fixed-layout binary header followed by a flat float32 payload:
//
// Part 1 (header), all little-endian:
//
//	32 bits: channel count (rows)
//	32 bits: sample count (preStim+postStim, cols)
//	32 bits: nave
//	32 bits: baselineFrom, as float32 seconds
//	32 bits: baselineTo, as float32 seconds
//	32 bits: first time, as float32 seconds
//	32 bits: last time, as float32 seconds
//
// Part 2 (payload): rows*cols float32 samples, row-major.
func messageEvoked(ev *EvokedResult) [][]byte {
	rows, cols := ev.Data.Dims()

	header := new(bytes.Buffer)
	binary.Write(header, binary.LittleEndian, uint32(rows))
	binary.Write(header, binary.LittleEndian, uint32(cols))
	binary.Write(header, binary.LittleEndian, uint32(ev.Nave))
	binary.Write(header, binary.LittleEndian, float32(ev.BaselineFrom))
	binary.Write(header, binary.LittleEndian, float32(ev.BaselineTo))
	binary.Write(header, binary.LittleEndian, float32(ev.First))
	binary.Write(header, binary.LittleEndian, float32(ev.Last))

	flat := make([]float32, rows*cols)
	idx := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			flat[idx] = float32(ev.Data.At(r, c))
			idx++
		}
	}
	payload := new(bytes.Buffer)
	binary.Write(payload, binary.LittleEndian, flat)

	return [][]byte{header.Bytes(), payload.Bytes()}
}
