package postsign

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Condition is one entry of a POST policy "conditions" array.
type Condition interface {
	json.Marshaler
	condition()
}

// ContentLengthRange encodes as ["content-length-range", min, max].
type ContentLengthRange struct {
	Min int64
	Max int64
}

func (ContentLengthRange) condition() {}

// MarshalJSON implements json.Marshaler.
func (r ContentLengthRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{"content-length-range", r.Min, r.Max})
}

// ExactMatch encodes as {"name": "value"}.
type ExactMatch struct {
	Name  string
	Value string
}

func (ExactMatch) condition() {}

// MarshalJSON implements json.Marshaler.
func (m ExactMatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{m.Name: m.Value})
}

// Policy is a POST policy document.
type Policy struct {
	Expiration time.Time
	Conditions []Condition
}

// NewPolicy builds a policy whose first condition is the content-length range,
// followed by one exact-match condition per field in the given order.
func NewPolicy(expiration time.Time, fields []Field, contentLengthMin, contentLengthMax int64) (Policy, error) {
	if err := validateLengthRange(contentLengthMin, contentLengthMax); err != nil {
		return Policy{}, fmt.Errorf("new policy: %w", err)
	}

	conditions := make([]Condition, 0, len(fields)+1)
	conditions = append(conditions, ContentLengthRange{Min: contentLengthMin, Max: contentLengthMax})
	for _, f := range fields {
		conditions = append(conditions, ExactMatch(f))
	}

	return Policy{Expiration: expiration, Conditions: conditions}, nil
}

// MarshalJSON renders {"expiration": ..., "conditions": [...]} with the expiration
// in UTC at millisecond precision.
func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Expiration string      `json:"expiration"`
		Conditions []Condition `json:"conditions"`
	}{
		Expiration: p.Expiration.UTC().Format(ExpirationFormat),
		Conditions: p.Conditions,
	})
}

// EncodedPolicy holds the serialized policy and the base64 string that gets signed.
type EncodedPolicy struct {
	JSON   []byte
	Base64 string
}

// Encode serializes the policy once and base64-encodes exactly those bytes.
func (p Policy) Encode() (EncodedPolicy, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return EncodedPolicy{}, fmt.Errorf("encode policy: %w: %w", ErrInternal, err)
	}

	return EncodedPolicy{
		JSON:   doc,
		Base64: base64.StdEncoding.EncodeToString(doc),
	}, nil
}
