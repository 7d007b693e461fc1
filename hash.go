package hfsm

// ID identifies a state inside one Machine. It is the FNV-1a hash of the
// state's name, so two names that collide alias each other.
type ID uint32

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// HashName returns the FNV-1a (32-bit) identifier for name. The hash folds in
// one Unicode code point (rune) at a time and is case-sensitive. For ASCII
// names it equals hash/fnv's New32a over the bytes. Implementations that fold
// UTF-16 code units agree for every name inside the Basic Multilingual Plane;
// a character outside it is one step here but two (a surrogate pair) there,
// so such names hash differently.
func HashName(name string) ID {
	h := fnvOffset32
	for _, r := range name {
		h ^= uint32(r)
		h *= fnvPrime32
	}
	return ID(h)
}
