package graft

import (
	"fmt"
	"reflect"
	"strings"
)

// Qualifier distinguishes several bindings of the same type.
// Two qualifiers are equal when both their discriminator type and value are equal.
type Qualifier struct {
	kind  reflect.Type
	value any
}

type name string

// QualifierOf creates a qualifier carrying v. The dynamic type of v is the
// discriminator, so QualifierOf(myTag("x")) never equals Named("x").
func QualifierOf[V comparable](v V) Qualifier {
	return Qualifier{kind: reflect.TypeFor[V](), value: v}
}

// Named is the common string qualifier.
func Named(n string) Qualifier {
	return QualifierOf(name(n))
}

// IsZero reports whether q is the absent qualifier.
func (q Qualifier) IsZero() bool {
	return q.kind == nil
}

// Value returns the value the qualifier was created with.
func (q Qualifier) Value() any {
	return q.value
}

func (q Qualifier) String() string {
	if q.IsZero() {
		return ""
	}
	if n, ok := q.value.(name); ok {
		return fmt.Sprintf("@Named(%q)", string(n))
	}
	return fmt.Sprintf("@%s(%v)", q.kind.Name(), q.value)
}

// Key identifies a requested dependency.
//
// The indirect flag is not part of the identity: a key and its indirect
// counterpart name the same binding.
type Key struct {
	typ       reflect.Type
	qualifier Qualifier
	indirect  bool
}

// KeyOf creates a key for T. A Provider[X] type yields the indirect key for X.
//
// Example:
//
//	k := graft.KeyOf[*Repository](graft.Named("primary"))
func KeyOf[T any](qualifiers ...Qualifier) Key {
	return KeyFor(reflect.TypeFor[T](), qualifiers...)
}

// KeyFor creates a key for an already obtained type.
func KeyFor(typ reflect.Type, qualifiers ...Qualifier) Key {
	k := Key{typ: typ}
	if len(qualifiers) > 0 {
		k.qualifier = qualifiers[0]
	}

	if elem, ok := providerElem(typ); ok {
		k.typ = elem
		k.indirect = true
	}

	return k
}

// Type returns the requested type.
func (k Key) Type() reflect.Type {
	return k.typ
}

// Qualifier returns the qualifier, zero when absent.
func (k Key) Qualifier() Qualifier {
	return k.qualifier
}

// Indirect reports whether a deferred producer is requested instead of an instance.
func (k Key) Indirect() bool {
	return k.indirect
}

// AsIndirect returns the deferred-producer variant of k.
func (k Key) AsIndirect() Key {
	k.indirect = true
	return k
}

// Direct returns the instance variant of k. It is the form used for binding identity.
func (k Key) Direct() Key {
	k.indirect = false
	return k
}

// Qualified returns a copy of k carrying q.
func (k Key) Qualified(q Qualifier) Key {
	k.qualifier = q
	return k
}

// Equal compares identity, ignoring the indirect flag.
func (k Key) Equal(other Key) bool {
	return k.Direct() == other.Direct()
}

// IsZero reports whether the key has no type.
func (k Key) IsZero() bool {
	return k.typ == nil
}

func (k Key) String() string {
	var b strings.Builder

	b.WriteByte('{')
	if k.indirect {
		b.WriteString("Provider[")
	}

	if k.typ == nil {
		b.WriteString("<nil>")
	} else {
		b.WriteString(k.typ.String())
	}

	if k.indirect {
		b.WriteByte(']')
	}

	if !k.qualifier.IsZero() {
		b.WriteByte(' ')
		b.WriteString(k.qualifier.String())
	}
	b.WriteByte('}')

	return b.String()
}
