package coordinator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
)

// Selector picks a session, task or skill either by identifier or by its
// 1-based position in the owning list.
type Selector struct {
	id      string
	index   int
	byIndex bool
}

// ByID selects by opaque identifier
func ByID(id string) Selector {
	return Selector{id: id}
}

// ByIndex selects by 1-based position
func ByIndex(index int) Selector {
	return Selector{index: index, byIndex: true}
}

// IsIndex reports whether the selector is positional
func (s Selector) IsIndex() bool {
	return s.byIndex
}

func (s Selector) String() string {
	if s.byIndex {
		return "#" + strconv.Itoa(s.index)
	}
	return s.id
}

// resolve returns the identifier the selector refers to within list.
// Identifiers are returned as-is; membership is left to the server.
func (s Selector) resolve(list []string, what string) (string, error) {
	if !s.byIndex {
		if s.id == "" {
			return "", apperrors.Newf(apperrors.ErrCodeSelection, "empty %s id", what)
		}
		return s.id, nil
	}
	if len(list) == 0 {
		return "", apperrors.Newf(apperrors.ErrCodeSelection, "no %ss available", what)
	}
	if s.index < 1 || s.index > len(list) {
		return "", apperrors.Newf(apperrors.ErrCodeSelection,
			"%s index %d out of range [1, %d]", what, s.index, len(list))
	}
	return list[s.index-1], nil
}

// SelectorFromArg converts a function call argument into a Selector.
// Strings select by id and numbers by 1-based index.
func SelectorFromArg(v interface{}) (Selector, error) {
	if s, ok := v.(string); ok {
		if s == "" {
			return Selector{}, apperrors.New(apperrors.ErrCodeSelection, "empty identifier", nil)
		}
		return ByID(s), nil
	}
	if idx, ok := indexFromArg(v); ok {
		return ByIndex(idx), nil
	}
	return Selector{}, apperrors.Newf(apperrors.ErrCodeSelection, "unsupported selector %v (%T)", v, v)
}

// indexFromArg accepts the numeric forms produced by JSON decoding and
// decimal strings. Non-integral numbers are rejected.
func indexFromArg(v interface{}) (int, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func argString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
