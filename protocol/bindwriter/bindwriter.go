// Package bindwriter assembles exactly one PostgreSQL Bind message
// (§4.4) onto a buffer.ByteBuffer, suspending and resuming across
// flushes the same way arraycodec suspends across refills.
package bindwriter

import (
	"github.com/guileen/pgwirebind/binding"
	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/errors"
	"github.com/guileen/pgwirebind/handler"
)

type state int

const (
	stateWroteNothing state = iota
	stateWroteHeader
	stateWroteParameters
	stateDone
)

const typeByteLen = 1

// BindMessageWriter emits one Bind message: type byte, length,
// portal/statement names, format-code block, parameter block, and
// result-format-code block, per §4.4's exact field order.
type BindMessageWriter struct {
	portal    string
	statement string
	params    []*binding.Parameter

	// unknownResultTypes, when non-nil, is the per-column "is this
	// result column's type unknown" list; nil means use the single
	// global allResultTypesUnknown flag instead.
	unknownResultTypes    []bool
	allResultTypesUnknown bool

	compressedCount int
	headerLen       int
	msgLen          int32

	state         state
	paramIndex    int
	wroteParamLen bool
}

// New builds a writer for one Bind message. portal/statement may be
// "" for the unnamed portal/statement; use ResolveName to generate an
// auto-named portal or statement before calling New if that is what
// the caller wants.
func New(portal, statement string, params []*binding.Parameter, unknownResultTypes []bool, allResultTypesUnknown bool) *BindMessageWriter {
	w := &BindMessageWriter{
		portal:                portal,
		statement:             statement,
		params:                params,
		unknownResultTypes:    unknownResultTypes,
		allResultTypesUnknown: allResultTypesUnknown,
	}
	w.compressedCount = compressedFormatCount(params)
	w.headerLen = headerLength(portal, statement, w.compressedCount)

	resultFormatCount := len(unknownResultTypes)
	if unknownResultTypes == nil {
		resultFormatCount = 1
	}
	w.msgLen = messageLength(w.headerLen, params, resultFormatCount)
	return w
}

// validate enforces the two cross-cutting invariants the writer
// itself is responsible for (§3 Invariants iv, v): every parameter
// must be bound for input, and exactly one of the two result-format
// selectors may be in play.
func (w *BindMessageWriter) validate() error {
	for _, p := range w.params {
		if p.Direction != binding.Input {
			return errors.New("bindwriter.Write", errors.CodeProtocolError, "Bind message writer accepts only input-direction parameters")
		}
	}
	if w.unknownResultTypes != nil && w.allResultTypesUnknown {
		return errors.New("bindwriter.Write", errors.CodeProtocolError, "all_result_types_are_unknown and unknown_result_type_list are mutually exclusive")
	}
	return nil
}

// headerLength is §4.4's "4 + |portal|+1 + |statement|+1 + 2 +
// 2·compressedCount + 2": the i32 length field, both NUL-terminated
// names, the format-code count and list, and the parameter count
// field that immediately follows. It excludes the leading type byte.
func headerLength(portal, statement string, compressedCount int) int {
	return 4 + len(portal) + 1 + len(statement) + 1 + 2 + 2*compressedCount + 2
}

// compressedFormatCount implements the all-text(0)/all-binary(1)/mixed(N) compression rule.
func compressedFormatCount(params []*binding.Parameter) int {
	if len(params) == 0 {
		return 0
	}
	allText, allBinary := true, true
	for _, p := range params {
		if p.FormatCode == handler.FormatBinary {
			allText = false
		} else {
			allBinary = false
		}
	}
	switch {
	case allText:
		return 0
	case allBinary:
		return 1
	default:
		return len(params)
	}
}

// messageLength implements §4.4's "header + 4·n_params + Σ bound_size_i
// (null as 0) + 2 + 2·resultFormatCount".
func messageLength(headerLen int, params []*binding.Parameter, resultFormatCount int) int32 {
	total := headerLen + 4*len(params)
	for _, p := range params {
		if !p.IsNull {
			total += int(p.BoundSize)
		}
	}
	total += 2 + 2*resultFormatCount
	return int32(total)
}

// Done reports whether the message has been fully emitted.
func (w *BindMessageWriter) Done() bool { return w.state == stateDone }

// Write drives the state machine one step. It returns (true, nil,
// nil) once the whole message has been emitted into buf; (false,
// nil, nil) to request a flush and re-entry; (false, directBuf, nil)
// to request the caller hand directBuf straight to the transport
// before re-entering; or a non-nil error. A capacity smaller than the
// message header is a fatal BufferTooSmall, not a suspension — no
// amount of flushing will ever make the header fit.
func (w *BindMessageWriter) Write(buf *buffer.ByteBuffer) (bool, []byte, error) {
	for {
		switch w.state {
		case stateWroteNothing:
			if err := w.validate(); err != nil {
				return false, nil, err
			}
			need := typeByteLen + w.headerLen
			if buf.Capacity() < need {
				return false, nil, errors.BufferTooSmall("bindwriter.Write", buf.Capacity(), need)
			}
			if buf.WriteSpaceLeft() < need {
				return false, nil, nil
			}
			if err := w.writeHeader(buf); err != nil {
				return false, nil, err
			}
			w.state = stateWroteHeader

		case stateWroteHeader:
			for w.paramIndex < len(w.params) {
				done, direct, err := w.writeOneParameter(buf, w.params[w.paramIndex])
				if err != nil {
					return false, nil, err
				}
				if direct != nil {
					return false, direct, nil
				}
				if !done {
					return false, nil, nil
				}
				w.paramIndex++
			}
			w.state = stateWroteParameters

		case stateWroteParameters:
			done, err := w.writeResultFormatBlock(buf)
			if err != nil {
				return false, nil, err
			}
			if !done {
				return false, nil, nil
			}
			w.state = stateDone
			return true, nil, nil

		case stateDone:
			return true, nil, nil
		}
	}
}

func (w *BindMessageWriter) writeHeader(buf *buffer.ByteBuffer) error {
	buf.PutByte('B')
	buf.PutInt32(w.msgLen)
	if err := buf.PutCString("bindwriter.Write", w.portal); err != nil {
		return err
	}
	if err := buf.PutCString("bindwriter.Write", w.statement); err != nil {
		return err
	}
	switch w.compressedCount {
	case 0:
		buf.PutInt16(0)
	case 1:
		buf.PutInt16(1)
		buf.PutInt16(int16(handler.FormatBinary))
	default:
		buf.PutInt16(int16(len(w.params)))
		for _, p := range w.params {
			buf.PutInt16(int16(p.FormatCode))
		}
	}
	buf.PutInt16(int16(len(w.params)))
	return nil
}

func (w *BindMessageWriter) writeOneParameter(buf *buffer.ByteBuffer, p *binding.Parameter) (bool, []byte, error) {
	if p.IsNull {
		if buf.WriteSpaceLeft() < 4 {
			return false, nil, nil
		}
		buf.PutInt32(-1)
		return true, nil, nil
	}
	if p.FormatCode == handler.FormatText {
		return false, nil, errors.NotImplemented("bindwriter.Write", "text-format parameter binding")
	}

	if p.SimpleWriter != nil {
		need := 4 + int(p.BoundSize)
		if buf.WriteSpaceLeft() < need {
			return false, nil, nil
		}
		buf.PutInt32(p.BoundSize)
		if err := p.SimpleWriter.WriteSimple(buf, p.Value); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	if !w.wroteParamLen {
		if buf.WriteSpaceLeft() < 4 {
			return false, nil, nil
		}
		buf.PutInt32(p.BoundSize)
		if err := p.ChunkingWriter.PrepareWrite(p.Value); err != nil {
			return false, nil, err
		}
		w.wroteParamLen = true
	}
	done, direct, err := p.ChunkingWriter.Write(buf)
	if err != nil {
		return false, nil, err
	}
	if direct != nil {
		return false, direct, nil
	}
	if done {
		w.wroteParamLen = false
		return true, nil, nil
	}
	return false, nil, nil
}

func (w *BindMessageWriter) writeResultFormatBlock(buf *buffer.ByteBuffer) (bool, error) {
	if w.unknownResultTypes != nil {
		need := 2 + 2*len(w.unknownResultTypes)
		if buf.WriteSpaceLeft() < need {
			return false, nil
		}
		buf.PutInt16(int16(len(w.unknownResultTypes)))
		for _, unknown := range w.unknownResultTypes {
			if unknown {
				buf.PutInt16(0)
			} else {
				buf.PutInt16(1)
			}
		}
		return true, nil
	}
	if buf.WriteSpaceLeft() < 4 {
		return false, nil
	}
	buf.PutInt16(1)
	if w.allResultTypesUnknown {
		buf.PutInt16(0)
	} else {
		buf.PutInt16(1)
	}
	return true, nil
}
