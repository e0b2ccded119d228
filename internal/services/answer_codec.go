package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gorm.io/datatypes"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
)

// EncodeAnswer maps a raw form value into the single typed slot its item type uses. A nil
// or blank value yields an empty TypedValue, which clears every slot.
func EncodeAnswer(itemType checklist.ItemType, value any) (checklist.TypedValue, error) {
	var out checklist.TypedValue
	if isBlank(value) {
		return out, nil
	}

	switch itemType {
	case checklist.ItemTypeNumber:
		f, err := cast.ToFloat64E(trimmed(value))
		if err != nil {
			return out, fmt.Errorf("number answer: %w", err)
		}
		out.NumericValue = &f

	case checklist.ItemTypeDate:
		d, err := parseDate(value)
		if err != nil {
			return out, err
		}
		out.DateValue = &d

	case checklist.ItemTypeSingleChoiceDropdown:
		encodeChoice(&out, value)

	case checklist.ItemTypeMultipleChoiceCheckbox:
		raw, err := encodeList(value)
		if err != nil {
			return out, err
		}
		out.JSONValue = raw

	case checklist.ItemTypeYesNo:
		b, err := parseYesNo(value)
		if err != nil {
			return out, err
		}
		out.BooleanValue = &b

	case checklist.ItemTypeDocumentUpload:
		id, err := parseDocumentRef(value)
		if err != nil {
			return out, err
		}
		out.DocumentReferenceID = &id

	case checklist.ItemTypeRepeatableGroup:
		return out, fmt.Errorf("repeatable_group items are answered through their groups")

	default:
		s, err := cast.ToStringE(value)
		if err != nil {
			return out, fmt.Errorf("text answer: %w", err)
		}
		out.TextValue = &s
	}
	return out, nil
}

// DecodeAnswer returns the active slot as a plain value, or nil.
func DecodeAnswer(v checklist.TypedValue) any {
	switch {
	case v.TextValue != nil:
		return *v.TextValue
	case v.NumericValue != nil:
		return *v.NumericValue
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.DateValue != nil:
		return v.DateValue.UTC().Format("2006-01-02")
	case len(v.JSONValue) > 0:
		var out any
		if err := json.Unmarshal(v.JSONValue, &out); err != nil {
			return string(v.JSONValue)
		}
		return out
	case v.DocumentReferenceID != nil:
		return v.DocumentReferenceID.String()
	default:
		return nil
	}
}

// statusFor: answered slots are submitted, cleared ones fall back to pending.
func statusFor(v checklist.TypedValue) checklist.ItemStatus {
	if v.HasValue() {
		return checklist.StatusSubmitted
	}
	return checklist.StatusPending
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func trimmed(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

// encodeChoice: literal TRUE/FALSE is boolean, parseable numbers are numeric, anything
// else is text.
func encodeChoice(out *checklist.TypedValue, value any) {
	switch t := value.(type) {
	case bool:
		out.BooleanValue = &t
		return
	case string:
		s := strings.TrimSpace(t)
		switch s {
		case "TRUE":
			b := true
			out.BooleanValue = &b
			return
		case "FALSE":
			b := false
			out.BooleanValue = &b
			return
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out.NumericValue = &f
			return
		}
		out.TextValue = &s
		return
	}
	if f, err := cast.ToFloat64E(value); err == nil {
		out.NumericValue = &f
		return
	}
	s := cast.ToString(value)
	out.TextValue = &s
}

func encodeList(value any) (datatypes.JSON, error) {
	var list []any
	switch t := value.(type) {
	case []any:
		list = t
	case []string:
		for _, s := range t {
			list = append(list, s)
		}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &list); err != nil {
				return nil, fmt.Errorf("checkbox answer: %w", err)
			}
		} else {
			list = []any{s}
		}
	default:
		list = []any{value}
	}
	// An empty selection is unanswered, same as a blank value.
	if len(list) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("checkbox answer: %w", err)
	}
	return datatypes.JSON(raw), nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

func parseDate(value any) (time.Time, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d.UTC(), nil
			}
		}
	}
	d, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date answer: %w", err)
	}
	return d.UTC(), nil
}

func parseYesNo(value any) (bool, error) {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(trimmed(value))
	if err != nil {
		return false, fmt.Errorf("yes_no answer: %w", err)
	}
	return b, nil
}

func parseDocumentRef(value any) (uuid.UUID, error) {
	switch t := value.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(t))
		if err != nil {
			return uuid.Nil, fmt.Errorf("document reference: %w", err)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("document reference: unsupported value %T", value)
	}
}
