package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

// Params is the parameter bag of one request, keyed by parameter name.
// Values stay raw until a handler asks for them with a concrete type.
type Params map[string]json.RawMessage

// ParseParams decodes a JSON object into Params. Empty input and null give an empty bag.
func ParseParams(data []byte) (Params, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Params{}, nil
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Params{}
	}
	return p, nil
}

// Has reports whether key is present with a non-null value.
func (p Params) Has(key string) bool {
	raw, ok := p[key]
	return ok && len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Decode unmarshals a required parameter into v.
func (p Params) Decode(key string, v any) error {
	if !p.Has(key) {
		return core.MissingParamError(key)
	}
	if err := json.Unmarshal(p[key], v); err != nil {
		return core.InvalidParamError(key, err)
	}
	return nil
}

// decodeOpt unmarshals an optional parameter into v and reports whether it was present.
func (p Params) decodeOpt(key string, v any) (bool, error) {
	if !p.Has(key) {
		return false, nil
	}
	if err := json.Unmarshal(p[key], v); err != nil {
		return false, core.InvalidParamError(key, err)
	}
	return true, nil
}

func (p Params) String(key string) (string, error) {
	var s string
	err := p.Decode(key, &s)
	return s, err
}

func (p Params) OptString(key, def string) (string, error) {
	s := def
	_, err := p.decodeOpt(key, &s)
	return s, err
}

func (p Params) Int(key string) (int, error) {
	var n int
	err := p.Decode(key, &n)
	return n, err
}

func (p Params) OptInt(key string, def int) (int, error) {
	n := def
	_, err := p.decodeOpt(key, &n)
	return n, err
}

// PositiveInt reads a required integer that must be greater than zero.
func (p Params) PositiveInt(key string) (int, error) {
	n, err := p.Int(key)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, core.InvalidParamError(key, errors.New("must be positive"))
	}
	return n, nil
}

func (p Params) Int64(key string) (int64, error) {
	var n int64
	err := p.Decode(key, &n)
	return n, err
}

func (p Params) OptInt64(key string, def int64) (int64, error) {
	n := def
	_, err := p.decodeOpt(key, &n)
	return n, err
}

func (p Params) Bool(key string) (bool, error) {
	var b bool
	err := p.Decode(key, &b)
	return b, err
}

func (p Params) OptBool(key string, def bool) (bool, error) {
	b := def
	_, err := p.decodeOpt(key, &b)
	return b, err
}

func (p Params) Strings(key string) ([]string, error) {
	var s []string
	err := p.Decode(key, &s)
	return s, err
}

func (p Params) OptStrings(key string) ([]string, error) {
	var s []string
	_, err := p.decodeOpt(key, &s)
	return s, err
}

// Message decodes a required message parameter.
func (p Params) Message(key string) (*core.Message, error) {
	var m core.Message
	if err := p.Decode(key, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages decodes a required list of messages.
func (p Params) Messages(key string) ([]*core.Message, error) {
	var ms []*core.Message
	if err := p.Decode(key, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// ConversationType decodes a conversation type and checks its range.
func (p Params) ConversationType(key string) (core.ConversationType, error) {
	n, err := p.Int(key)
	if err != nil {
		return 0, err
	}
	t := core.ConversationType(n)
	if !t.Valid() {
		return 0, core.InvalidParamError(key, errors.New("unknown conversation type"))
	}
	return t, nil
}

// Mark decodes a conversation mark and checks its range.
func (p Params) Mark(key string) (core.Mark, error) {
	n, err := p.Int(key)
	if err != nil {
		return 0, err
	}
	return checkMark(key, n)
}

func checkMark(key string, n int) (core.Mark, error) {
	m := core.Mark(n)
	if m < 0 || m > core.MaxMark {
		return 0, core.InvalidParamError(key, errors.New("mark out of range"))
	}
	return m, nil
}
