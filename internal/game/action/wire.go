package action

import (
	"encoding/json"
	"fmt"
)

// wireAction is the JSON envelope: kind plus a kind-specific data object.
type wireAction struct {
	Kind               Kind            `json:"kind"`
	Data               json.RawMessage `json:"data,omitempty"`
	Confidence         float64         `json:"confidence"`
	MissingFields      []string        `json:"missing_fields"`
	Warnings           []string        `json:"warnings"`
	OriginalText       string          `json:"original_text"`
	NeedsClarification bool            `json:"needs_clarification"`
	Source             string          `json:"source"`
}

// payload returns the pointer matching Kind, nil for KindUnknown.
func (a *CanonicalAction) payload() any {
	switch a.Kind {
	case KindAttack:
		if a.Attack != nil {
			return a.Attack
		}
	case KindSpell:
		if a.Spell != nil {
			return a.Spell
		}
	case KindMove:
		if a.Move != nil {
			return a.Move
		}
	case KindSkill:
		if a.Skill != nil {
			return a.Skill
		}
	case KindGeneric:
		if a.Generic != nil {
			return a.Generic
		}
	case KindItem:
		if a.Item != nil {
			return a.Item
		}
	}
	return nil
}

// PayloadJSON returns the kind payload marshaled on its own, nil for
// KindUnknown. Callers embed it in contexts that only care about the data
// object, not the envelope.
func (a *CanonicalAction) PayloadJSON() json.RawMessage {
	p := a.payload()
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}

// MarshalJSON writes the wire envelope with the payload under "data".
// Missing-field and warning lists marshal as empty arrays, never null.
func (a *CanonicalAction) MarshalJSON() ([]byte, error) {
	w := wireAction{
		Kind:               a.Kind,
		Confidence:         a.Confidence,
		MissingFields:      a.MissingFields,
		Warnings:           a.Warnings,
		OriginalText:       a.OriginalText,
		NeedsClarification: a.NeedsClarification,
		Source:             a.Source,
	}
	if w.MissingFields == nil {
		w.MissingFields = []string{}
	}
	if w.Warnings == nil {
		w.Warnings = []string{}
	}
	if payload := a.payload(); payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s data: %w", a.Kind, err)
		}
		w.Data = data
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire envelope and decodes "data" into the payload
// matching the kind.
func (a *CanonicalAction) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding action: %w", err)
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("decoding action: unknown kind %q", w.Kind)
	}

	*a = CanonicalAction{
		Kind:               w.Kind,
		Confidence:         w.Confidence,
		MissingFields:      w.MissingFields,
		Warnings:           w.Warnings,
		OriginalText:       w.OriginalText,
		NeedsClarification: w.NeedsClarification,
		Source:             w.Source,
	}
	if a.MissingFields == nil {
		a.MissingFields = []string{}
	}
	if a.Warnings == nil {
		a.Warnings = []string{}
	}

	if len(w.Data) == 0 {
		if w.Kind != KindUnknown {
			return fmt.Errorf("decoding action: kind %q without data", w.Kind)
		}
		return nil
	}

	var payload any
	switch w.Kind {
	case KindAttack:
		a.Attack = &Attack{}
		payload = a.Attack
	case KindSpell:
		a.Spell = &Spell{}
		payload = a.Spell
	case KindMove:
		a.Move = &Move{}
		payload = a.Move
	case KindSkill:
		a.Skill = &Skill{}
		payload = a.Skill
	case KindGeneric:
		a.Generic = &Generic{}
		payload = a.Generic
	case KindItem:
		a.Item = &UseItem{}
		payload = a.Item
	case KindUnknown:
		// Stray data on an unknown action is dropped.
		return nil
	}
	if err := json.Unmarshal(w.Data, payload); err != nil {
		return fmt.Errorf("decoding %s data: %w", w.Kind, err)
	}
	return nil
}

// ParseJSON decodes one canonical action from its wire form.
func ParseJSON(data []byte) (*CanonicalAction, error) {
	a := &CanonicalAction{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, err
	}
	return a, nil
}
