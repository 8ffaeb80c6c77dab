// Copyright 2025 The filecat Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fileattr

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// modeMask covers every bit chmod can change.
const modeMask = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// ParseMode turns a mode expression into the resulting file mode. Octal
// expressions ("0644", "644", "4755") are absolute; symbolic expressions
// ("a+r", "u=rw,g-w", "o=") are applied relative to current.
func ParseMode(expr string, current os.FileMode) (os.FileMode, error) {
	if expr == "" {
		return current & modeMask, nil
	}

	if bits, err := strconv.ParseUint(expr, 8, 32); err == nil {
		if bits > 0o7777 {
			return 0, fmt.Errorf("invalid mode %q: out of range", expr)
		}
		return numericToMode(uint32(bits)), nil
	}

	mode := current & modeMask
	for _, clause := range strings.Split(expr, ",") {
		next, err := applyClause(clause, mode)
		if err != nil {
			return 0, fmt.Errorf("invalid mode %q: %w", expr, err)
		}
		mode = next
	}
	return mode, nil
}

// FormatMode renders a mode as the zero-padded octal string reported in
// results, e.g. "0644" or "4755".
func FormatMode(m os.FileMode) string {
	return fmt.Sprintf("%04o", modeToNumeric(m))
}

func numericToMode(bits uint32) os.FileMode {
	mode := os.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

func modeToNumeric(m os.FileMode) uint32 {
	bits := uint32(m.Perm())
	if m&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return bits
}

// applyClause handles one "[ugoa...]<op><perms>" clause with op one of
// "+", "-", "=" and perms drawn from "rwxst".
func applyClause(clause string, mode os.FileMode) (os.FileMode, error) {
	opIdx := strings.IndexAny(clause, "+-=")
	if opIdx < 0 {
		return 0, fmt.Errorf("missing operator in %q", clause)
	}

	who := clause[:opIdx]
	if who == "" {
		who = "a"
	}
	op := clause[opIdx]
	perms := clause[opIdx+1:]

	var mask, bits uint32
	for _, w := range who {
		switch w {
		case 'u':
			mask |= 0o4700
		case 'g':
			mask |= 0o2070
		case 'o':
			mask |= 0o1007
		case 'a':
			mask |= 0o7777
		default:
			return 0, fmt.Errorf("unknown class %q", string(w))
		}
	}

	for _, p := range perms {
		switch p {
		case 'r':
			bits |= 0o444
		case 'w':
			bits |= 0o222
		case 'x':
			bits |= 0o111
		case 's':
			bits |= 0o6000
		case 't':
			bits |= 0o1000
		default:
			return 0, fmt.Errorf("unknown permission %q", string(p))
		}
	}
	bits &= mask

	numeric := modeToNumeric(mode)
	switch op {
	case '+':
		numeric |= bits
	case '-':
		numeric &^= bits
	case '=':
		numeric = numeric&^mask | bits
	}
	return numericToMode(numeric), nil
}
