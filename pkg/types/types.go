package types

// Nullable is implemented by value types that distinguish an absent value
// from an explicitly provided one.
type Nullable interface {
	IsNil() bool
}
