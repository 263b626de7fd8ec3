package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ResourceFromRecord converts a loosely typed record (typically decoded JSON) into a Resource.
//
// Values of any scalar type are formatted as strings, lists are joined and nested
// objects are rendered as "key: value" pairs. Contact details are read from a nested
// contact_info (or contact) object and from flattened contact_* keys; flattened keys
// take precedence. A record without a service_name yields ErrEmptyServiceName.
func ResourceFromRecord(record map[string]any) (*Resource, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	name := coerceString(record["service_name"])
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyServiceName)
	}

	r := &Resource{
		ServiceName:        name,
		Category:           coerceString(record["category"]),
		TargetUsers:        coerceString(record["target_users"]),
		Description:        coerceString(record["description"]),
		Eligibility:        coerceString(record["eligibility"]),
		ApplicationProcess: coerceString(record["application_process"]),
		Cost:               coerceString(record["cost"]),
		Provider:           coerceString(record["provider"]),
		Location:           coerceString(record["location"]),
		Keywords:           coerceKeywords(record["keywords"]),
	}

	nested, ok := record["contact_info"]
	if !ok {
		nested = record["contact"]
	}
	r.Contact = coerceContact(nested)

	if v := coerceString(record["contact_phone"]); v != "" {
		r.Contact.Phone = v
	}
	if v := coerceString(record["contact_fax"]); v != "" {
		r.Contact.Fax = v
	}
	if v := coerceString(record["contact_email"]); v != "" {
		r.Contact.Email = v
	}
	if v := coerceString(record["contact_url"]); v != "" {
		r.Contact.URL = v
	}

	r.Id = IDFromServiceName(r.ServiceName)
	return r, nil
}

func coerceContact(v any) Contact {
	switch c := v.(type) {
	case map[string]any:
		return Contact{
			Phone: coerceString(c["phone"]),
			Fax:   coerceString(c["fax"]),
			Email: coerceString(c["email"]),
			URL:   coerceString(c["url"]),
		}
	case string:
		s := strings.TrimSpace(c)
		switch {
		case s == "":
			return Contact{}
		case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
			return Contact{URL: s}
		case strings.Contains(s, "@"):
			return Contact{Email: s}
		default:
			return Contact{Phone: s}
		}
	default:
		return Contact{}
	}
}

// keywordSeparators splits keyword strings on ASCII and full-width list punctuation.
var keywordSeparators = strings.NewReplacer("、", ",", "，", ",", ";", ",", "；", ",", "\n", ",")

func coerceKeywords(v any) []string {
	var raw []string
	switch k := v.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range k {
			raw = append(raw, coerceString(item))
		}
	case []string:
		raw = append(raw, k...)
	default:
		raw = strings.Split(keywordSeparators.Replace(coerceString(k)), ",")
	}

	keywords := make([]string, 0, len(raw))
	for _, kw := range raw {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case []any:
		parts := make([]string, 0, len(s))
		for _, item := range s {
			if p := coerceString(item); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return coerceString(anySlice(s))
	case map[string]any:
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if p := coerceString(s[k]); p != "" {
				parts = append(parts, k+": "+p)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
