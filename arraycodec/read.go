package arraycodec

import (
	stderrors "errors"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/errors"
)

// PrepareRead resets the codec for a fresh array read. The element OID
// the wire header must declare is passed to Read, which checks the
// header against it once the header has been read.
func (c *ArrayCodec) PrepareRead() error {
	if c.rState == readingElements || c.rState == readHeader {
		return errors.ConcurrentOperation("arraycodec.PrepareRead")
	}
	c.rState = readNothing
	c.ndim = 0
	c.hasNulls = 0
	c.dimLengths = nil
	c.flatIndex = 0
	c.totalCount = 0
	c.elementLen = -1
	c.pendingSafe = nil
	c.readFlat = nil
	return nil
}

// flatElement is one decoded array element: Null is true for SQL
// NULL, otherwise Value holds the decoded host value.
type flatElement struct {
	Null  bool
	Value any
}

// ReadResult is the fully-decoded array: Dims gives the array's shape
// (length ndim), Flat holds every element in row-major order, and
// Value reassembles Flat into the same nested-[]any shape a caller
// would pass to PrepareWrite. A zero-dimensional array yields Dims
// {0} with nil Flat and Value.
type ReadResult struct {
	Dims  []int32
	Flat  []flatElement
	Value any
}

// Read drives the array-read state machine (§4.5) one step. It
// returns (true, result, nil) once the whole array has been consumed,
// (false, nil, nil) to request a refill and re-entry, or a non-nil
// error. Errors from errors.CodeSafeReadError are contained per
// element: they are deferred until every remaining element has been
// consumed byte-wise, then raised once as a single aggregate error
// (§9 REDESIGN) instead of unwinding mid-scan.
func (c *ArrayCodec) Read(buf *buffer.ByteBuffer, elementOID uint32) (bool, *ReadResult, error) {
	for {
		switch c.rState {
		case readNothing:
			if buf.ReadBytesLeft() < 12 {
				return false, nil, nil
			}
			c.ndim = int(buf.GetInt32())
			c.hasNulls = buf.GetInt32()
			gotOID := uint32(buf.GetInt32())
			if gotOID != elementOID {
				return false, nil, errors.OidMismatch("arraycodec.Read", elementOID, gotOID)
			}
			if c.ndim == 0 {
				c.rState = readNeedPrepare
				return true, &ReadResult{Dims: []int32{0}, Flat: nil}, nil
			}
			c.dimLengths = make([]int32, c.ndim)
			c.rState = readHeader
		case readHeader:
			need := c.ndim * 8
			if buf.ReadBytesLeft() < need {
				return false, nil, nil
			}
			total := int32(1)
			for i := 0; i < c.ndim; i++ {
				length := buf.GetInt32()
				_ = buf.GetInt32() // lower bound, discarded
				c.dimLengths[i] = length
				total *= length
			}
			c.totalCount = int(total)
			c.flatIndex = 0
			c.readFlat = make([]flatElement, 0, c.totalCount)
			c.rState = readingElements
		case readingElements:
			for c.flatIndex < c.totalCount {
				done, elem, err := c.readOneElement(buf)
				if err != nil {
					if errors.Code(err) == errors.CodeSafeReadError {
						c.pendingSafe = append(c.pendingSafe, err)
					} else {
						return false, nil, err
					}
				}
				if !done {
					return false, nil, nil
				}
				c.readFlat = append(c.readFlat, elem)
				c.flatIndex++
			}
			dims := append([]int32(nil), c.dimLengths...)
			result := &ReadResult{Dims: dims, Flat: c.readFlat, Value: unflatten(dims, c.readFlat)}
			c.rState = readNeedPrepare
			if len(c.pendingSafe) > 0 {
				agg := stderrors.Join(c.pendingSafe...)
				c.pendingSafe = nil
				return true, result, errors.SafeRead("arraycodec.Read", agg)
			}
			return true, result, nil
		default: // readNeedPrepare
			return false, nil, errors.New("arraycodec.Read", errors.CodeConcurrentOperation, "PrepareRead was not called")
		}
	}
}

// readOneElement owns element_len across suspensions, per §4.5's
// per-element read routine.
func (c *ArrayCodec) readOneElement(buf *buffer.ByteBuffer) (bool, flatElement, error) {
	if c.elementLen == -1 {
		if buf.ReadBytesLeft() < 4 {
			return false, flatElement{}, nil
		}
		n := buf.GetInt32()
		if n == -1 {
			c.elementLen = -1
			return true, flatElement{Null: true}, nil
		}
		c.elementLen = n
		c.chunkPrepared = false
	}

	if c.elementSimple != nil {
		if buf.ReadBytesLeft() < int(c.elementLen) {
			return false, flatElement{}, nil
		}
		v, err := c.elementSimple.ReadSimple(buf, int(c.elementLen))
		c.elementLen = -1
		if err != nil {
			return true, flatElement{}, err
		}
		return true, flatElement{Value: v}, nil
	}

	if !c.chunkPrepared {
		if err := c.elementChunk.PrepareRead(int(c.elementLen)); err != nil {
			return false, flatElement{}, err
		}
		c.chunkPrepared = true
	}
	done, v, err := c.elementChunk.Read(buf)
	if err != nil {
		c.elementLen = -1
		c.chunkPrepared = false
		return true, flatElement{}, err
	}
	if !done {
		return false, flatElement{}, nil
	}
	c.elementLen = -1
	c.chunkPrepared = false
	return true, flatElement{Value: v}, nil
}
