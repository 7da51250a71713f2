package graft

import (
	"context"
)

type injectorCtxKey struct{}

// WithInjector returns a new context carrying inj.
//
// Example:
//
//	func middleware(inj *graft.Injector, next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        next.ServeHTTP(w, r.WithContext(graft.WithInjector(r.Context(), inj)))
//	    })
//	}
func WithInjector(ctx context.Context, inj *Injector) context.Context {
	return context.WithValue(ctx, injectorCtxKey{}, inj)
}

// FromContext retrieves the injector from ctx.
func FromContext(ctx context.Context) (*Injector, bool) {
	inj, ok := ctx.Value(injectorCtxKey{}).(*Injector)
	return inj, ok && inj != nil
}

// GetCtx resolves T from the injector carried by ctx.
//
// Example:
//
//	repo, err := graft.GetCtx[*Repository](ctx)
func GetCtx[T any](ctx context.Context, qualifiers ...Qualifier) (T, error) {
	inj, ok := FromContext(ctx)
	if !ok {
		var zero T
		return zero, invalidArguments("no injector in context")
	}
	return Get[T](inj, qualifiers...)
}

// CallCtx invokes fn with parameters resolved from the injector carried by ctx.
func CallCtx[T any](ctx context.Context, fn any, opts ...MethodOption) (T, error) {
	inj, ok := FromContext(ctx)
	if !ok {
		var zero T
		return zero, invalidArguments("no injector in context")
	}
	return Call[T](inj, fn, opts...)
}
