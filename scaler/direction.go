package scaler

import (
	"fmt"
	"strings"
)

// Direction describes how the three box axes take part in anisotropic
// scaling: axes in one group share a scaling factor, frozen axes are not
// scaled at all, and separate groups draw independently.
type Direction struct {
	groups [][3]bool
	frozen [3]bool
}

// Groups returns the coupled axis groups.
func (d Direction) Groups() [][3]bool { return d.groups }

// Frozen returns the axes excluded from scaling.
func (d Direction) Frozen() [3]bool { return d.frozen }

// ParseDirection parses a scaling direction string. Accepted forms:
//
//	isotropic            all axes coupled
//	anisotropic x        x alone, y and z coupled (same for y, z)
//	anisotropic xyz      three independent axes
//	token string         x, y, z each exactly once, possibly wrapped in
//	                     (...) to couple or [...] to freeze, e.g.
//	                     "xyz", "(xy)z", "[x]yz", "y[xz]"
//
// A string leaving some axis unaccounted for is rejected.
func ParseDirection(s string) (Direction, error) {
	switch strings.TrimSpace(s) {
	case "isotropic":
		return Direction{groups: [][3]bool{{true, true, true}}}, nil
	case "anisotropic x":
		return Direction{groups: [][3]bool{{true, false, false}, {false, true, true}}}, nil
	case "anisotropic y":
		return Direction{groups: [][3]bool{{false, true, false}, {true, false, true}}}, nil
	case "anisotropic z":
		return Direction{groups: [][3]bool{{false, false, true}, {true, true, false}}}, nil
	case "anisotropic xyz":
		return Direction{groups: [][3]bool{
			{true, false, false}, {false, true, false}, {false, false, true},
		}}, nil
	}
	return parseDirectionTokens(strings.TrimSpace(s))
}

func parseDirectionTokens(s string) (Direction, error) {
	var d Direction
	var used [3]bool

	markAxis := func(c byte) (int, error) {
		if c < 'x' || c > 'z' {
			return 0, fmt.Errorf("scaler: unexpected %q in scaling direction %q", c, s)
		}
		k := int(c - 'x')
		if used[k] {
			return 0, fmt.Errorf("scaler: duplicated direction %q in %q", c, s)
		}
		used[k] = true
		return k, nil
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 'x', 'y', 'z':
			k, err := markAxis(c)
			if err != nil {
				return Direction{}, err
			}
			var group [3]bool
			group[k] = true
			d.groups = append(d.groups, group)

		case '(', '[':
			closing := byte(')')
			if c == '[' {
				closing = ']'
			}
			end := strings.IndexByte(s[i:], closing)
			if end < 0 {
				return Direction{}, fmt.Errorf("scaler: unmatched %q in scaling direction %q", c, s)
			}
			end += i

			var group [3]bool
			for j := i + 1; j < end; j++ {
				k, err := markAxis(s[j])
				if err != nil {
					return Direction{}, err
				}
				group[k] = true
			}
			if c == '(' {
				d.groups = append(d.groups, group)
			} else {
				for k := 0; k < 3; k++ {
					if group[k] {
						d.frozen[k] = true
					}
				}
			}
			i = end

		default:
			return Direction{}, fmt.Errorf("scaler: unexpected %q in scaling direction %q", c, s)
		}
	}

	for k := 0; k < 3; k++ {
		if !used[k] {
			return Direction{}, fmt.Errorf(
				"scaler: direction %q leaves axis %q unspecified", s, 'x'+byte(k))
		}
	}
	return d, nil
}
