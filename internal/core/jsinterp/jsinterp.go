// Package jsinterp evaluates the small transform fragments extracted from the
// platform's player script. The fragments are untrusted third-party code, so
// they are never handed to a general script engine: the compiler reduces a
// fragment to a closed set of string operations (reverse, swap, slice,
// splice) and anything outside that set is rejected. Evaluation is pure
// computation on the input string with a fixed time ceiling.
package jsinterp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EvalTimeout bounds a single Run call.
const EvalTimeout = 3 * time.Second

// maxOps caps the number of compiled operations per fragment.
const maxOps = 256

var (
	// ErrUnsupported marks a fragment that uses constructs outside the
	// interpreter's operation set.
	ErrUnsupported = errors.New("jsinterp: unsupported fragment")

	// ErrTimeout marks an evaluation that exceeded EvalTimeout.
	ErrTimeout = errors.New("jsinterp: evaluation timed out")
)

// OpKind enumerates the operations a compiled fragment may perform.
type OpKind int

const (
	// OpReverse reverses the character array.
	OpReverse OpKind = iota
	// OpSwap exchanges element 0 with element arg%len.
	OpSwap
	// OpSplice removes the first arg elements.
	OpSplice
	// OpSlice keeps the elements from index arg onward.
	OpSlice
)

// Op is one tagged operation with its integer argument.
type Op struct {
	Kind OpKind
	Arg  int
}

// Program is a compiled transform fragment, safe to evaluate repeatedly and
// from multiple goroutines.
type Program struct {
	ops []Op
}

var (
	helperEntryRe = regexp.MustCompile(`([A-Za-z0-9_$]+)\s*:\s*function\s*\(([^)]*)\)\s*\{([^}]*)\}`)

	reverseBodyRe = regexp.MustCompile(`^(?:return\s+)?[A-Za-z0-9_$]+\.reverse\(\)(?:;)?$`)
	sliceBodyRe   = regexp.MustCompile(`^return\s+[A-Za-z0-9_$]+\.slice\([A-Za-z0-9_$]+\)(?:;)?$`)
	spliceBodyRe  = regexp.MustCompile(`^[A-Za-z0-9_$]+\.splice\(0\s*,\s*[A-Za-z0-9_$]+\)(?:;)?$`)
	swapBodyRe    = regexp.MustCompile(`^var\s+[A-Za-z0-9_$]+=[A-Za-z0-9_$]+\[0\];[A-Za-z0-9_$]+\[0\]=[A-Za-z0-9_$]+\[[A-Za-z0-9_$]+%[A-Za-z0-9_$]+\.length\];[A-Za-z0-9_$]+\[[A-Za-z0-9_$]+(?:%[A-Za-z0-9_$]+\.length)?\]=[A-Za-z0-9_$]+(?:;return [A-Za-z0-9_$]+)?(?:;)?$`)

	helperCallRe = regexp.MustCompile(`^(?:[A-Za-z0-9_$]+=)?([A-Za-z0-9_$]+)(?:\.([A-Za-z0-9_$]+)|\["([A-Za-z0-9_$]+)"\])\(([A-Za-z0-9_$]+),(\d+)\)$`)
	inlineCallRe = regexp.MustCompile(`^(?:[A-Za-z0-9_$]+=)?[A-Za-z0-9_$]+\.(reverse|slice|splice)\(([^)]*)\)$`)
	splitStmtRe  = regexp.MustCompile(`^[A-Za-z0-9_$]+=[A-Za-z0-9_$]+\.split\(""\)$`)
	returnStmtRe = regexp.MustCompile(`^return\s+[A-Za-z0-9_$]+\.join\(""\)$`)
)

// Compile reduces a captured fragment to an operation list. params is the
// fragment's parameter list text, body its statement text, helper the
// optional helper object literal the body calls into. Fragments that do not
// reduce to the closed operation set fail with ErrUnsupported.
func Compile(params, body, helper string) (*Program, error) {
	param := strings.TrimSpace(strings.Split(params, ",")[0])
	if param == "" {
		return nil, fmt.Errorf("%w: empty parameter list", ErrUnsupported)
	}

	helperOps, err := compileHelper(helper)
	if err != nil {
		return nil, err
	}

	var ops []Op
	for _, stmt := range splitStatements(body) {
		switch {
		case stmt == "", splitStmtRe.MatchString(stmt):
			// a=a.split("") converts the string to a character array;
			// the evaluator always works on one, so this is a no-op
		case returnStmtRe.MatchString(stmt):
			return &Program{ops: ops}, nil
		default:
			op, err := compileStatement(stmt, helperOps)
			if err != nil {
				return nil, err
			}
			if len(ops) >= maxOps {
				return nil, fmt.Errorf("%w: too many operations", ErrUnsupported)
			}
			ops = append(ops, op)
		}
	}
	// A fragment without a join-return is still usable when every statement
	// compiled; some n-transform shapes return the array variable directly.
	return &Program{ops: ops}, nil
}

func compileHelper(helper string) (map[string]OpKind, error) {
	kinds := make(map[string]OpKind)
	if strings.TrimSpace(helper) == "" {
		return kinds, nil
	}
	matches := helperEntryRe.FindAllStringSubmatch(helper, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: helper object has no recognizable entries", ErrUnsupported)
	}
	for _, m := range matches {
		name, fnBody := m[1], strings.TrimSpace(m[3])
		switch {
		case reverseBodyRe.MatchString(fnBody):
			kinds[name] = OpReverse
		case sliceBodyRe.MatchString(fnBody):
			kinds[name] = OpSlice
		case spliceBodyRe.MatchString(fnBody):
			kinds[name] = OpSplice
		case swapBodyRe.MatchString(fnBody):
			kinds[name] = OpSwap
		default:
			return nil, fmt.Errorf("%w: helper %s has unrecognized body", ErrUnsupported, name)
		}
	}
	return kinds, nil
}

func compileStatement(stmt string, helperOps map[string]OpKind) (Op, error) {
	if m := helperCallRe.FindStringSubmatch(stmt); m != nil {
		name := m[2]
		if name == "" {
			name = m[3]
		}
		kind, ok := helperOps[name]
		if !ok {
			return Op{}, fmt.Errorf("%w: call to unknown helper %s", ErrUnsupported, name)
		}
		arg, err := strconv.Atoi(m[5])
		if err != nil {
			return Op{}, fmt.Errorf("%w: bad argument in %q", ErrUnsupported, stmt)
		}
		return Op{Kind: kind, Arg: arg}, nil
	}

	if m := inlineCallRe.FindStringSubmatch(stmt); m != nil {
		switch m[1] {
		case "reverse":
			return Op{Kind: OpReverse}, nil
		case "slice":
			arg, err := strconv.Atoi(strings.TrimSpace(m[2]))
			if err != nil {
				return Op{}, fmt.Errorf("%w: bad slice argument in %q", ErrUnsupported, stmt)
			}
			return Op{Kind: OpSlice, Arg: arg}, nil
		case "splice":
			parts := strings.Split(m[2], ",")
			if len(parts) != 2 || strings.TrimSpace(parts[0]) != "0" {
				return Op{}, fmt.Errorf("%w: bad splice arguments in %q", ErrUnsupported, stmt)
			}
			arg, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return Op{}, fmt.Errorf("%w: bad splice argument in %q", ErrUnsupported, stmt)
			}
			return Op{Kind: OpSplice, Arg: arg}, nil
		}
	}

	return Op{}, fmt.Errorf("%w: statement %q", ErrUnsupported, stmt)
}

func splitStatements(body string) []string {
	parts := strings.Split(body, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Run applies the program to input and returns the transformed string.
func (p *Program) Run(input string) (string, error) {
	deadline := time.Now().Add(EvalTimeout)
	chars := []rune(input)
	for _, op := range p.ops {
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		var err error
		chars, err = apply(op, chars)
		if err != nil {
			return "", err
		}
	}
	return string(chars), nil
}

func apply(op Op, chars []rune) ([]rune, error) {
	switch op.Kind {
	case OpReverse:
		for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
			chars[i], chars[j] = chars[j], chars[i]
		}
		return chars, nil
	case OpSwap:
		if len(chars) == 0 {
			return chars, nil
		}
		i := op.Arg % len(chars)
		chars[0], chars[i] = chars[i], chars[0]
		return chars, nil
	case OpSplice, OpSlice:
		if op.Arg < 0 || op.Arg > len(chars) {
			return nil, fmt.Errorf("jsinterp: index %d out of range for length %d", op.Arg, len(chars))
		}
		return chars[op.Arg:], nil
	default:
		return nil, fmt.Errorf("jsinterp: unknown operation %d", op.Kind)
	}
}

// Ops exposes the compiled operation list, for diagnostics.
func (p *Program) Ops() []Op {
	out := make([]Op, len(p.ops))
	copy(out, p.ops)
	return out
}
