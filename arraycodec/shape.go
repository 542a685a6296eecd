package arraycodec

import "github.com/guileen/pgwirebind/errors"

// arrayShape walks a nested-[]any host value and returns its
// dimension lengths (row-major, outermost first) and its elements
// flattened in row-major order. A nil entry at the leaf level denotes
// SQL NULL. The value must be rectangular: every slice at a given
// depth must share the same length as its siblings.
func arrayShape(op string, value any) (dims []int32, flat []any, err error) {
	top, ok := value.([]any)
	if !ok {
		return nil, nil, errors.InvalidCast(op, "[]any (array host value)")
	}
	return shapeOf(op, top)
}

func shapeOf(op string, v []any) ([]int32, []any, error) {
	if len(v) == 0 {
		return []int32{0}, nil, nil
	}
	if inner, ok := v[0].([]any); ok {
		innerDims, _, err := shapeOf(op, inner)
		if err != nil {
			return nil, nil, err
		}
		flat := make([]any, 0, len(v)*len(inner))
		for _, elem := range v {
			sub, ok := elem.([]any)
			if !ok {
				return nil, nil, errors.New(op, errors.CodeProtocolError, "ragged array: mixed element and sub-array at the same depth")
			}
			subDims, subFlat, err := shapeOf(op, sub)
			if err != nil {
				return nil, nil, err
			}
			if !dimsEqual(subDims, innerDims) {
				return nil, nil, errors.New(op, errors.CodeProtocolError, "ragged array: inconsistent sub-array dimensions")
			}
			flat = append(flat, subFlat...)
		}
		return append([]int32{int32(len(v))}, innerDims...), flat, nil
	}
	return []int32{int32(len(v))}, append([]any(nil), v...), nil
}

func dimsEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// unflatten rebuilds a nested-[]any value from dims and a row-major
// flat element list, the inverse of arrayShape, used to hand read
// results back in the same shape callers write with.
func unflatten(dims []int32, flat []flatElement) any {
	if len(dims) == 0 {
		return nil
	}
	if len(dims) == 1 {
		out := make([]any, dims[0])
		for i := range out {
			if flat[i].Null {
				out[i] = nil
			} else {
				out[i] = flat[i].Value
			}
		}
		return out
	}
	innerSize := 1
	for _, d := range dims[1:] {
		innerSize *= int(d)
	}
	out := make([]any, dims[0])
	for i := range out {
		out[i] = unflatten(dims[1:], flat[i*innerSize:(i+1)*innerSize])
	}
	return out
}
