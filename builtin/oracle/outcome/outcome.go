// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package outcome defines the answers a data request can resolve to.
package outcome

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

type kind uint8

const (
	kindInvalid kind = iota
	kindString
	kindNumber
)

// Outcome is either Invalid or an Answer holding a string or a number.
// It is a comparable value, the zero value is Invalid.
type Outcome struct {
	kind       kind
	text       string
	value      uint256.Int
	multiplier uint256.Int
	negative   bool
}

// Invalid returns the outcome for a request that can't be answered.
func Invalid() Outcome {
	return Outcome{}
}

// NewString returns a string answer.
func NewString(text string) Outcome {
	return Outcome{kind: kindString, text: text}
}

// NewNumber returns a numeric answer, value/multiplier with an optional sign.
func NewNumber(value, multiplier *uint256.Int, negative bool) Outcome {
	o := Outcome{kind: kindNumber, negative: negative}
	o.value.Set(value)
	o.multiplier.Set(multiplier)
	return o
}

func (o Outcome) IsInvalid() bool { return o.kind == kindInvalid }
func (o Outcome) IsString() bool  { return o.kind == kindString }
func (o Outcome) IsNumber() bool  { return o.kind == kindNumber }

// Text returns the string answer.
func (o Outcome) Text() (string, bool) {
	return o.text, o.kind == kindString
}

// Number returns the numeric answer.
func (o Outcome) Number() (value, multiplier *uint256.Int, negative bool, ok bool) {
	if o.kind != kindNumber {
		return nil, nil, false, false
	}
	return o.value.Clone(), o.multiplier.Clone(), o.negative, true
}

// Multiplier returns the multiplier of a numeric answer, nil otherwise.
func (o Outcome) Multiplier() *uint256.Int {
	if o.kind != kindNumber {
		return nil
	}
	return o.multiplier.Clone()
}

// Bytes returns a unique binary form used in storage keys.
func (o Outcome) Bytes() []byte {
	switch o.kind {
	case kindString:
		b := make([]byte, 0, 1+binary.MaxVarintLen64+len(o.text))
		b = append(b, byte(kindString))
		b = binary.AppendUvarint(b, uint64(len(o.text)))
		return append(b, o.text...)
	case kindNumber:
		b := make([]byte, 0, 66)
		b = append(b, byte(kindNumber))
		v := o.value.Bytes32()
		m := o.multiplier.Bytes32()
		b = append(b, v[:]...)
		b = append(b, m[:]...)
		if o.negative {
			return append(b, 1)
		}
		return append(b, 0)
	default:
		return []byte{byte(kindInvalid)}
	}
}

func (o Outcome) String() string {
	switch o.kind {
	case kindString:
		return fmt.Sprintf("Answer(%q)", o.text)
	case kindNumber:
		sign := ""
		if o.negative {
			sign = "-"
		}
		return fmt.Sprintf("Answer(%s%s/%s)", sign, o.value.Dec(), o.multiplier.Dec())
	default:
		return "Invalid"
	}
}

type rlpOutcome struct {
	Kind       uint8
	Text       string
	Value      *uint256.Int
	Multiplier *uint256.Int
	Negative   bool
}

// EncodeRLP implements rlp.Encoder.
func (o Outcome) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &rlpOutcome{
		Kind:       uint8(o.kind),
		Text:       o.text,
		Value:      o.value.Clone(),
		Multiplier: o.multiplier.Clone(),
		Negative:   o.negative,
	})
}

// DecodeRLP implements rlp.Decoder.
func (o *Outcome) DecodeRLP(s *rlp.Stream) error {
	var obj rlpOutcome
	if err := s.Decode(&obj); err != nil {
		return err
	}
	switch kind(obj.Kind) {
	case kindInvalid:
		*o = Invalid()
	case kindString:
		*o = NewString(obj.Text)
	case kindNumber:
		*o = NewNumber(obj.Value, obj.Multiplier, obj.Negative)
	default:
		return errors.Errorf("unknown outcome kind %d", obj.Kind)
	}
	return nil
}

type jsonNumber struct {
	Value      string `json:"value"`
	Multiplier string `json:"multiplier"`
	Negative   bool   `json:"negative"`
}

type jsonAnswer struct {
	String *string     `json:"String,omitempty"`
	Number *jsonNumber `json:"Number,omitempty"`
}

type jsonOutcome struct {
	Answer *jsonAnswer `json:"Answer"`
}

const invalidJSON = `"Invalid"`

// MarshalJSON encodes Invalid as "Invalid" and answers as {"Answer":{...}}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case kindString:
		text := o.text
		return json.Marshal(&jsonOutcome{Answer: &jsonAnswer{String: &text}})
	case kindNumber:
		return json.Marshal(&jsonOutcome{Answer: &jsonAnswer{Number: &jsonNumber{
			Value:      o.value.Dec(),
			Multiplier: o.multiplier.Dec(),
			Negative:   o.negative,
		}}})
	default:
		return []byte(invalidJSON), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	if string(data) == invalidJSON {
		*o = Invalid()
		return nil
	}
	var obj jsonOutcome
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "outcome")
	}
	if obj.Answer == nil {
		return errors.New("outcome: expected \"Invalid\" or an Answer")
	}
	switch {
	case obj.Answer.String != nil && obj.Answer.Number == nil:
		*o = NewString(*obj.Answer.String)
	case obj.Answer.Number != nil && obj.Answer.String == nil:
		value, err := uint256.FromDecimal(obj.Answer.Number.Value)
		if err != nil {
			return errors.Wrap(err, "outcome value")
		}
		multiplier, err := uint256.FromDecimal(obj.Answer.Number.Multiplier)
		if err != nil {
			return errors.Wrap(err, "outcome multiplier")
		}
		*o = NewNumber(value, multiplier, obj.Answer.Number.Negative)
	default:
		return errors.New("outcome: answer must be either String or Number")
	}
	return nil
}
