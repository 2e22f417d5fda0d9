// Package navigation computes the workspace a switch action lands on.
package navigation

import (
	"fmt"
	"strings"

	opts "github.com/goliatone/go-wsoptions"
)

// Direction is a step along the workspace sequence.
type Direction int

const (
	Backward Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Compass is the direction a keybinding or gesture names.
type Compass int

const (
	Up Compass = iota
	Down
	Left
	Right
)

func (c Compass) String() string {
	switch c {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "right"
	}
}

// ParseCompass accepts up, down, left and right in any case.
func ParseCompass(value string) (Compass, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Up, fmt.Errorf("navigation: unknown direction %q", value)
	}
}

// Orientation is the axis workspaces are laid out on.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) axis(c Compass) bool {
	if o == Vertical {
		return c == Up || c == Down
	}
	return c == Left || c == Right
}

// Policy holds the flags that shape a step.
type Policy struct {
	Wraparound         bool
	IgnoreLast         bool
	ReverseOrientation bool
}

// Resolve returns the index reached from current by one step in dir.
//
// With IgnoreLast the final workspace is left out of the cycle. Without
// Wraparound a step past either end stays on the end. A count below one is
// treated as one, and current is clamped into the effective range first, so
// the result is always in [0, effective count).
func Resolve(current, count int, dir Direction, policy Policy) int {
	effective := count
	if policy.IgnoreLast {
		effective--
	}
	if effective < 1 {
		effective = 1
	}
	last := effective - 1
	current = min(max(current, 0), last)

	if dir == Backward {
		index := (current + last) % effective
		if !policy.Wraparound && index > current {
			return 0
		}
		return index
	}
	index := (current + 1) % effective
	if !policy.Wraparound && index < current {
		return last
	}
	return index
}

// DirectionFor maps a compass direction to a step. Up and left step backward,
// down and right forward. reverse flips the directions that lie on the
// layout axis, so a right-to-left horizontal layout moves forward on left.
func DirectionFor(c Compass, orientation Orientation, reverse bool) Direction {
	dir := Forward
	if c == Up || c == Left {
		dir = Backward
	}
	if reverse && orientation.axis(c) {
		dir = 1 - dir
	}
	return dir
}

// PolicySource is the slice of the options store navigation reads.
type PolicySource interface {
	Bool(name string) (bool, error)
}

// PolicyFrom reads the current policy flags.
func PolicyFrom(source PolicySource) (Policy, error) {
	if source == nil {
		return Policy{}, fmt.Errorf("navigation: policy source is nil")
	}
	var policy Policy
	flags := []struct {
		name string
		dst  *bool
	}{
		{opts.OptionWrap, &policy.Wraparound},
		{opts.OptionIgnoreLast, &policy.IgnoreLast},
		{opts.OptionReverseOrientation, &policy.ReverseOrientation},
	}
	for _, flag := range flags {
		value, err := source.Bool(flag.name)
		if err != nil {
			return Policy{}, fmt.Errorf("navigation: read %s: %w", flag.name, err)
		}
		*flag.dst = value
	}
	return policy, nil
}

// Navigator resolves compass moves using the policy stored in Options. The
// policy is read on every call so preference changes apply immediately.
type Navigator struct {
	Options PolicySource
}

// Neighbor returns the workspace reached from current by moving toward c.
func (n Navigator) Neighbor(current, count int, c Compass, orientation Orientation) (int, error) {
	policy, err := PolicyFrom(n.Options)
	if err != nil {
		return current, err
	}
	return Resolve(current, count, DirectionFor(c, orientation, policy.ReverseOrientation), policy), nil
}
