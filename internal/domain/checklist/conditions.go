package checklist

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

type ConditionType string

const (
	CondEquals      ConditionType = "equals"
	CondNotEquals   ConditionType = "notEquals"
	CondGreaterThan ConditionType = "greaterThan"
	CondLessThan    ConditionType = "lessThan"
	CondContains    ConditionType = "contains"
	CondNotContains ConditionType = "notContains"
)

// Condition is a sealed sum type over the six rule kinds. Subject is the item whose
// answer the condition reads; uuid.Nil means the item that owns the rule.
type Condition interface {
	Kind() ConditionType
	Subject() uuid.UUID
	Holds(answer any) bool
}

type Equals struct {
	Value any
	On    uuid.UUID
}

type NotEquals struct {
	Value any
	On    uuid.UUID
}

type GreaterThan struct {
	Threshold any
	On        uuid.UUID
}

type LessThan struct {
	Threshold any
	On        uuid.UUID
}

type Contains struct {
	Value any
	On    uuid.UUID
}

type NotContains struct {
	Value any
	On    uuid.UUID
}

func (c Equals) Kind() ConditionType      { return CondEquals }
func (c NotEquals) Kind() ConditionType   { return CondNotEquals }
func (c GreaterThan) Kind() ConditionType { return CondGreaterThan }
func (c LessThan) Kind() ConditionType    { return CondLessThan }
func (c Contains) Kind() ConditionType    { return CondContains }
func (c NotContains) Kind() ConditionType { return CondNotContains }

func (c Equals) Subject() uuid.UUID      { return c.On }
func (c NotEquals) Subject() uuid.UUID   { return c.On }
func (c GreaterThan) Subject() uuid.UUID { return c.On }
func (c LessThan) Subject() uuid.UUID    { return c.On }
func (c Contains) Subject() uuid.UUID    { return c.On }
func (c NotContains) Subject() uuid.UUID { return c.On }

func (c Equals) Holds(answer any) bool    { return LooseEqual(answer, c.Value) }
func (c NotEquals) Holds(answer any) bool { return !LooseEqual(answer, c.Value) }

func (c GreaterThan) Holds(answer any) bool {
	a, b := ToNumber(answer), ToNumber(c.Threshold)
	return !math.IsNaN(a) && !math.IsNaN(b) && a > b
}

func (c LessThan) Holds(answer any) bool {
	a, b := ToNumber(answer), ToNumber(c.Threshold)
	return !math.IsNaN(a) && !math.IsNaN(b) && a < b
}

func (c Contains) Holds(answer any) bool {
	found, ok := containment(answer, c.Value)
	return ok && found
}

func (c NotContains) Holds(answer any) bool {
	found, ok := containment(answer, c.Value)
	return ok && !found
}

// SubcategoryRule is the AND-set of conditions that unlocks one subcategory.
type SubcategoryRule struct {
	Subcategory string
	Conditions  []Condition
}

// ValidationRules is the parsed form of RequiredItem.ValidationRules, sorted by subcategory.
type ValidationRules []SubcategoryRule

type rawCondition struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value"`
	ItemID string          `json:"item_id,omitempty"`
}

// ParseValidationRules decodes {"<subcategory>": [{"type", "value", "item_id"?}, ...]}.
// An empty or null document yields no rules.
func ParseValidationRules(doc []byte) (ValidationRules, error) {
	trimmed := strings.TrimSpace(string(doc))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}
	var raw map[string][]rawCondition
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("decode validation rules: %w", err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("validation rules contain a blank subcategory name")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(ValidationRules, 0, len(names))
	for _, name := range names {
		conds := make([]Condition, 0, len(raw[name]))
		for idx, rc := range raw[name] {
			c, err := rc.decode()
			if err != nil {
				return nil, fmt.Errorf("subcategory %q condition %d: %w", name, idx, err)
			}
			conds = append(conds, c)
		}
		out = append(out, SubcategoryRule{Subcategory: strings.TrimSpace(name), Conditions: conds})
	}
	return out, nil
}

func (rc rawCondition) decode() (Condition, error) {
	var value any
	if len(rc.Value) > 0 {
		if err := json.Unmarshal(rc.Value, &value); err != nil {
			return nil, fmt.Errorf("decode value: %w", err)
		}
	}
	on := uuid.Nil
	if s := strings.TrimSpace(rc.ItemID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid item_id %q: %w", s, err)
		}
		on = id
	}
	switch ConditionType(strings.TrimSpace(rc.Type)) {
	case CondEquals:
		return Equals{Value: value, On: on}, nil
	case CondNotEquals:
		return NotEquals{Value: value, On: on}, nil
	case CondGreaterThan:
		return GreaterThan{Threshold: value, On: on}, nil
	case CondLessThan:
		return LessThan{Threshold: value, On: on}, nil
	case CondContains:
		return Contains{Value: value, On: on}, nil
	case CondNotContains:
		return NotContains{Value: value, On: on}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", rc.Type)
	}
}

// ToNumber coerces an answer to a float the way a form field would: blank strings are
// zero, booleans are 0/1, anything unparseable is NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case []any, map[string]any:
		return math.NaN()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN()
	}
	return f
}

// LooseEqual compares with type coercion: numbers, numeric strings and booleans compare
// numerically, strings compare exactly, a list compares as its comma-joined string, and
// nil only equals nil.
func LooseEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		switch bv := b.(type) {
		case string:
			return av == bv
		case float64, bool:
			return numEq(ToNumber(av), ToNumber(bv))
		case []any:
			return av == joinList(bv)
		}
	case float64:
		switch bv := b.(type) {
		case string, bool:
			return numEq(av, ToNumber(bv))
		case float64:
			return av == bv
		case []any:
			return numEq(av, ToNumber(joinList(bv)))
		}
	case bool:
		switch bv := b.(type) {
		case bool:
			return av == bv
		case []any:
			return numEq(ToNumber(av), ToNumber(joinList(bv)))
		default:
			return numEq(ToNumber(av), ToNumber(bv))
		}
	case []any:
		if _, isList := b.([]any); isList {
			return false
		}
		return LooseEqual(b, av)
	}
	return false
}

func numEq(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && a == b
}

func joinList(xs []any) string {
	parts := make([]string, 0, len(xs))
	for _, x := range xs {
		if x == nil {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, cast.ToString(normalize(x)))
	}
	return strings.Join(parts, ",")
}

// normalize folds integer kinds and string slices into the JSON-decoded shapes.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, float64, bool, []any:
		return t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32:
		return cast.ToFloat64(v)
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return v
}

// containment reports membership for lists and substring for strings. ok is false when the
// answer is neither.
func containment(answer, needle any) (found bool, ok bool) {
	switch hay := normalize(answer).(type) {
	case []any:
		n := normalize(needle)
		for _, el := range hay {
			if sameValue(normalize(el), n) {
				return true, true
			}
		}
		return false, true
	case string:
		if needle == nil {
			return false, true
		}
		return strings.Contains(hay, cast.ToString(normalize(needle))), true
	default:
		return false, false
	}
}

func sameValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}
