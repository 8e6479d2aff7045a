package registration

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the on-disk and display format of Record.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// RequiredFields are the submission keys every record must carry.
var RequiredFields = []string{"name", "mobile", "course"}

// reserved keys are assigned by the server and never taken from a submission.
var reserved = map[string]bool{"id": true, "timestamp": true}

// Record is one stored registration. Records are immutable once appended.
type Record struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Mobile    string            `json:"mobile"`
	Course    string            `json:"course"`
	Extra     map[string]string `json:"extra,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// FormattedTimestamp renders the timestamp with TimestampLayout.
func (r Record) FormattedTimestamp() string {
	return r.Timestamp.UTC().Format(TimestampLayout)
}

// Submission is an unvalidated registration as received from a client.
type Submission struct {
	Name   string
	Mobile string
	Course string
	Extra  map[string]string
}

// SubmissionFromPayload maps a decoded JSON object onto a Submission.
// Scalars are stringified, objects and arrays are re-encoded as JSON,
// nulls are dropped, and reserved keys are ignored.
func SubmissionFromPayload(payload map[string]any) Submission {
	var sub Submission
	for key, raw := range payload {
		val, ok := stringify(raw)
		if !ok {
			continue
		}
		switch key {
		case "name":
			sub.Name = val
		case "mobile":
			sub.Mobile = val
		case "course":
			sub.Course = val
		default:
			if reserved[key] {
				continue
			}
			if sub.Extra == nil {
				sub.Extra = make(map[string]string)
			}
			sub.Extra[key] = val
		}
	}
	return sub
}

// normalized folds CRLF line endings into LF in every text value.
func (s Submission) normalized() Submission {
	out := Submission{
		Name:   foldCRLF(s.Name),
		Mobile: foldCRLF(s.Mobile),
		Course: foldCRLF(s.Course),
	}
	if len(s.Extra) > 0 {
		out.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = foldCRLF(v)
		}
	}
	return out
}

// foldCRLF repeats until no CRLF is left, so "\r\r\n" cannot leave a new pair behind.
func foldCRLF(v string) string {
	for strings.Contains(v, "\r\n") {
		v = strings.ReplaceAll(v, "\r\n", "\n")
	}
	return v
}

// Validate reports every required field that is absent or blank.
func (s Submission) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"mobile", s.Mobile},
		{"course", s.Course},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
