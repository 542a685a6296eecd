package arraycodec

import (
	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/errors"
)

// ValidateAndGetLength implements §4.5's validate_and_get_length: the
// total wire length this array will occupy, without writing anything.
// Callers (e.g. the parameter framer) call this once to fill a
// parameter's bound_size before emission.
func (c *ArrayCodec) ValidateAndGetLength(value any) (int, error) {
	dims, flat, err := arrayShape("arraycodec.ValidateAndGetLength", value)
	if err != nil {
		return 0, err
	}
	total := 12 + 8*len(dims)
	for _, v := range flat {
		total += 4
		if v == nil {
			continue
		}
		var n int
		var err error
		if c.elementSW != nil {
			n, err = c.elementSW.ValidateAndGetLength(v)
		} else {
			n, err = c.elementCW.ValidateAndGetLength(v)
		}
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// PrepareWrite resets the codec for a fresh array write.
func (c *ArrayCodec) PrepareWrite(value any) error {
	if c.wState == writingElements || c.wState == writeCleanup {
		return errors.ConcurrentOperation("arraycodec.PrepareWrite")
	}
	dims, flat, err := arrayShape("arraycodec.PrepareWrite", value)
	if err != nil {
		return err
	}
	c.writeDims = dims
	c.writeFlatValues = flat
	c.writeFlat = 0
	c.writeTotal = len(flat)
	c.wroteElemLen = false
	c.chunkPrepared = false
	c.wState = writeNothing
	return nil
}

// Write drives the array-write state machine (§4.5) one step, writing
// into buf and returning true once the whole array has been emitted,
// or false to request a flush and re-entry.
func (c *ArrayCodec) Write(buf *buffer.ByteBuffer, elementOID uint32) (bool, []byte, error) {
	for {
		switch c.wState {
		case writeNothing:
			need := 12 + 8*len(c.writeDims)
			if buf.WriteSpaceLeft() < need {
				return false, nil, nil
			}
			hasNulls := int32(0)
			for _, v := range c.writeFlatValues {
				if v == nil {
					hasNulls = 1
					break
				}
			}
			buf.PutInt32(int32(len(c.writeDims)))
			buf.PutInt32(hasNulls)
			buf.PutInt32(int32(elementOID))
			for _, d := range c.writeDims {
				buf.PutInt32(d)
				buf.PutInt32(1) // lower bound normalized to 1
			}
			c.wState = writingElements
		case writingElements:
			for c.writeFlat < c.writeTotal {
				done, direct, err := c.writeOneElement(buf)
				if err != nil {
					return false, nil, err
				}
				if direct != nil {
					return false, direct, nil
				}
				if !done {
					return false, nil, nil
				}
				c.writeFlat++
			}
			c.wState = writeNeedPrepare
			return true, nil, nil
		default: // writeNeedPrepare, writeCleanup
			return false, nil, errors.New("arraycodec.Write", errors.CodeConcurrentOperation, "PrepareWrite was not called")
		}
	}
}

func (c *ArrayCodec) writeOneElement(buf *buffer.ByteBuffer) (bool, []byte, error) {
	value := c.writeFlatValues[c.writeFlat]
	if value == nil {
		if buf.WriteSpaceLeft() < 4 {
			return false, nil, nil
		}
		buf.PutInt32(-1)
		return true, nil, nil
	}

	if c.elementSW != nil {
		n, err := c.elementSW.ValidateAndGetLength(value)
		if err != nil {
			return false, nil, err
		}
		if buf.WriteSpaceLeft() < 4+n {
			return false, nil, nil
		}
		buf.PutInt32(int32(n))
		if err := c.elementSW.WriteSimple(buf, value); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	if !c.wroteElemLen {
		if buf.WriteSpaceLeft() < 4 {
			return false, nil, nil
		}
		n, err := c.elementCW.ValidateAndGetLength(value)
		if err != nil {
			return false, nil, err
		}
		buf.PutInt32(int32(n))
		if err := c.elementCW.PrepareWrite(value); err != nil {
			return false, nil, err
		}
		c.wroteElemLen = true
	}
	done, direct, err := c.elementCW.Write(buf)
	if err != nil {
		return false, nil, err
	}
	if direct != nil {
		// direct-buffer bypass: caller flushes direct first, then
		// re-enters with wroteElemLen still true to resume this
		// element's remaining bytes.
		return false, direct, nil
	}
	if done {
		c.wroteElemLen = false
		return true, nil, nil
	}
	return false, nil, nil
}
