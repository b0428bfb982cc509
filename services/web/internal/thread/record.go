package thread

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed is matched by every *ValidationError.
var ErrMalformed = errors.New("thread: malformed comment records")

// Record is one comment as delivered by the forum service. It is never
// modified after decoding; a refetch replaces the whole set.
type Record struct {
	ID            int64     `json:"id" validate:"gt=0"`
	ParentID      *int64    `json:"parent_id"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count" validate:"gte=0"`
	DislikesCount int       `json:"dislikes_count" validate:"gte=0"`
	Depth         int       `json:"depth" validate:"gte=0"`
}

// ValidationError lists every problem found in a record set.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "thread: malformed comment records: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrMalformed }

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeRecords parses a JSON array of comment objects. Anything else is
// rejected as a whole; nothing is returned alongside an error.
func DecodeRecords(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &ValidationError{Problems: []string{"payload is not a list"}}
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &ValidationError{Problems: []string{"payload is not a list: " + err.Error()}}
	}

	records := make([]Record, 0, len(raws))
	var problems []string
	for i, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			problems = append(problems, fmt.Sprintf("record %d is not an object", i))
			continue
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		records = append(records, r)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	if err := Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Validate checks field ranges and id uniqueness.
func Validate(records []Record) error {
	var problems []string
	seen := make(map[int64]struct{}, len(records))
	for i := range records {
		r := &records[i]
		if err := validate.Struct(r); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fe := range fieldErrs {
					problems = append(problems, fmt.Sprintf("record %d: %s failed %s", i, fe.Field(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
			}
		}
		if _, dup := seen[r.ID]; dup {
			problems = append(problems, fmt.Sprintf("record %d: duplicate id %d", i, r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
