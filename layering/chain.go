package layering

import "slices"

// Level identifies the precedence of a layer. Higher levels override lower
// levels when layering.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelDefaults is the weakest layer (built-in defaults).
	LevelDefaults
	// LevelFile holds values read from a configuration file.
	LevelFile
	// LevelEnv holds values read from the environment.
	LevelEnv
	// LevelFlags is the strongest layer (explicit command line flags).
	LevelFlags
)

func (l Level) String() string {
	switch l {
	case LevelDefaults:
		return "defaults"
	case LevelFile:
		return "file"
	case LevelEnv:
		return "env"
	case LevelFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch value {
	case "defaults", "DEFAULTS":
		return LevelDefaults
	case "file", "FILE":
		return LevelFile
	case "env", "ENV":
		return LevelEnv
	case "flags", "FLAGS":
		return LevelFlags
	default:
		return LevelUnknown
	}
}

// Layer is one named value within a Chain.
type Layer[T any] struct {
	Level  Level
	Source string // file path, env prefix or similar origin label
	Value  T
}

// Chain describes the ordered layering sequence from strongest to weakest.
type Chain[T any] struct {
	ordered []Layer[T]
}

// NewChain constructs a chain, dropping layers with an unknown level. The
// resulting order places stronger levels before weaker ones while keeping the
// relative ordering of peers.
func NewChain[T any](layers ...Layer[T]) Chain[T] {
	filtered := make([]Layer[T], 0, len(layers))
	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer[T]) int {
		return int(b.Level) - int(a.Level)
	})
	return Chain[T]{ordered: filtered}
}

// Ordered returns the layers from strongest (index 0) to weakest.
func (c Chain[T]) Ordered() []Layer[T] {
	out := make([]Layer[T], len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Strongest returns the first layer in the chain (zero layer if empty).
func (c Chain[T]) Strongest() Layer[T] {
	if len(c.ordered) == 0 {
		return Layer[T]{}
	}
	return c.ordered[0]
}

// Weakest returns the final layer in the chain (zero layer if empty).
func (c Chain[T]) Weakest() Layer[T] {
	if len(c.ordered) == 0 {
		return Layer[T]{}
	}
	return c.ordered[len(c.ordered)-1]
}

// Merge folds the chain with MergeLayers.
func (c Chain[T]) Merge() T {
	values := make([]T, len(c.ordered))
	for i, layer := range c.ordered {
		values[i] = layer.Value
	}
	return MergeLayers(values...)
}
