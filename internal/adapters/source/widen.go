package source

import "reflect"

// widen converts a native column value (or a pointer to one) into a Value,
// reusing buf for array content.
func widen(x any, buf []float64) Value {
	switch v := x.(type) {
	case *float32:
		return Value{Valid: true, Scalar: float64(*v)}
	case *float64:
		return Value{Valid: true, Scalar: *v}
	case *int32:
		return Value{Valid: true, Scalar: float64(*v)}
	case *bool:
		return Value{Valid: true, Scalar: boolFloat(*v)}
	case *[]float32:
		buf = buf[:0]
		for _, f := range *v {
			buf = append(buf, float64(f))
		}
		return Value{Valid: true, Array: true, Values: buf}
	case *[]float64:
		return Value{Valid: true, Array: true, Values: append(buf[:0], *v...)}
	case *[]int32:
		buf = buf[:0]
		for _, n := range *v {
			buf = append(buf, float64(n))
		}
		return Value{Valid: true, Array: true, Values: buf}
	case float64:
		return Value{Valid: true, Scalar: v}
	case []float64:
		return Value{Valid: true, Array: true, Values: append(buf[:0], v...)}
	case nil:
		return Value{}
	}

	rv := reflect.Indirect(reflect.ValueOf(x))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		buf = buf[:0]
		for i := 0; i < rv.Len(); i++ {
			buf = append(buf, number(rv.Index(i)))
		}
		return Value{Valid: true, Array: true, Values: buf}
	case reflect.Invalid:
		return Value{}
	default:
		return Value{Valid: true, Scalar: number(rv)}
	}
}

func number(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Bool:
		return boolFloat(v.Bool())
	}
	return 0
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
