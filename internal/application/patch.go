package application

// Patch is an optional field in a partial update. Set distinguishes a field
// the caller supplied, possibly with a zero or nil Value, from one left out.
type Patch[T any] struct {
	Set   bool
	Value T
}

// Some returns a Patch marked as supplied.
func Some[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: v}
}

// apply overwrites *dst when the patch is set.
func (p Patch[T]) apply(dst *T) {
	if p.Set {
		*dst = p.Value
	}
}
