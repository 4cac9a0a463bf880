// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package outcome

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// DataType is the kind of answer a request expects.
type DataType struct {
	number     bool
	multiplier uint256.Int
}

// StringType expects string answers.
func StringType() DataType {
	return DataType{}
}

// NumberType expects numeric answers scaled by multiplier.
func NumberType(multiplier *uint256.Int) DataType {
	d := DataType{number: true}
	d.multiplier.Set(multiplier)
	return d
}

func (d DataType) IsNumber() bool { return d.number }

// Multiplier returns the expected multiplier of a numeric type, nil for strings.
func (d DataType) Multiplier() *uint256.Int {
	if !d.number {
		return nil
	}
	return d.multiplier.Clone()
}

func (d DataType) String() string {
	if d.number {
		return "Number(" + d.multiplier.Dec() + ")"
	}
	return "String"
}

type rlpDataType struct {
	Number     bool
	Multiplier *uint256.Int
}

// EncodeRLP implements rlp.Encoder.
func (d DataType) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &rlpDataType{Number: d.number, Multiplier: d.multiplier.Clone()})
}

// DecodeRLP implements rlp.Decoder.
func (d *DataType) DecodeRLP(s *rlp.Stream) error {
	var obj rlpDataType
	if err := s.Decode(&obj); err != nil {
		return err
	}
	if obj.Number {
		*d = NumberType(obj.Multiplier)
	} else {
		*d = StringType()
	}
	return nil
}

// MarshalJSON encodes "String" or {"Number":"<multiplier>"}.
func (d DataType) MarshalJSON() ([]byte, error) {
	if !d.number {
		return []byte(`"String"`), nil
	}
	return json.Marshal(map[string]string{"Number": d.multiplier.Dec()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DataType) UnmarshalJSON(data []byte) error {
	if string(data) == `"String"` {
		*d = StringType()
		return nil
	}
	var obj struct {
		Number *string `json:"Number"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "data type")
	}
	if obj.Number == nil {
		return errors.New("data type: expected \"String\" or {\"Number\":...}")
	}
	multiplier, err := uint256.FromDecimal(*obj.Number)
	if err != nil {
		return errors.Wrap(err, "data type multiplier")
	}
	*d = NumberType(multiplier)
	return nil
}
