package graft

// TypedFunc is a constructor whose signature is known at compile time. Besides
// the reflective path it carries a direct invoker the engine switches to once a
// supplier has proven hot.
type TypedFunc struct {
	fn      any
	invoker Invoker
}

// Fn0 wraps a constructor without parameters.
func Fn0[T any](fn func() T) TypedFunc {
	return TypedFunc{fn: fn, invoker: func([]any) (any, error) {
		return fn(), nil
	}}
}

// Fn1 wraps a constructor with one parameter.
func Fn1[A, T any](fn func(A) T) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		return fn(a), nil
	}}
}

// Fn2 wraps a constructor with two parameters.
func Fn2[A, B, T any](fn func(A, B) T) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	}}
}

// Fn3 wraps a constructor with three parameters.
func Fn3[A, B, C, T any](fn func(A, B, C) T) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args[2])
		if err != nil {
			return nil, err
		}
		return fn(a, b, c), nil
	}}
}

// FnE0 wraps a constructor without parameters that may fail.
func FnE0[T any](fn func() (T, error)) TypedFunc {
	return TypedFunc{fn: fn, invoker: func([]any) (any, error) {
		return unbox(fn())
	}}
}

// FnE1 wraps a constructor with one parameter that may fail.
func FnE1[A, T any](fn func(A) (T, error)) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		return unbox(fn(a))
	}}
}

// FnE2 wraps a constructor with two parameters that may fail.
func FnE2[A, B, T any](fn func(A, B) (T, error)) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		return unbox(fn(a, b))
	}}
}

// FnE3 wraps a constructor with three parameters that may fail.
func FnE3[A, B, C, T any](fn func(A, B, C) (T, error)) TypedFunc {
	return TypedFunc{fn: fn, invoker: func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args[2])
		if err != nil {
			return nil, err
		}
		return unbox(fn(a, b, c))
	}}
}

// unbox drops the value on error so both invocation paths agree.
func unbox[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
