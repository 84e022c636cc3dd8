package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixIDHookFunc overrides NewSixID in tests. override=false falls back to random generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook lets tests force specific ids (e.g. to provoke duplicate key retries).
var NewSixIDHook SixIDHookFunc

// sixIDSubtype is the BSON binary subtype used to store SixIDs.
const sixIDSubtype byte = 0x80

// SixID is a 6-byte random identifier, rendered as 10 Crockford Base32 characters
// and stored in Mongo as BinData with subtype 0x80.
type SixID [6]byte

// NewSixID returns a random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		return SixID{}
	}
	return id
}

// ParseSixID parses the Crockford Base32 form produced by String.
func ParseSixID(s string) (SixID, error) {
	if s == "" {
		return SixID{}, errors.New("empty SixID")
	}

	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != 10 {
		return SixID{}, fmt.Errorf("invalid SixID %q: length must be 10", s)
	}

	var bits uint64
	var offset uint
	var id SixID
	n := 0

	for i := 0; i < len(s); i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, fmt.Errorf("invalid character %q in SixID", s[i])
		}
		bits |= uint64(val) << offset
		offset += 5

		for offset >= 8 && n < len(id) {
			id[n] = byte(bits & 0xFF)
			n++
			bits >>= 8
			offset -= 8
		}
	}

	if n != len(id) {
		return SixID{}, errors.New("invalid SixID: could not decode 6 bytes")
	}
	return id, nil
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap = func() map[byte]byte {
	m := make(map[byte]byte, 64)
	lower := strings.ToLower(crockfordAlphabet)
	for i := range crockfordAlphabet {
		m[crockfordAlphabet[i]] = byte(i)
		m[lower[i]] = byte(i)
	}
	// Commonly confused characters.
	m['O'], m['o'] = m['0'], m['0']
	m['I'], m['i'] = m['1'], m['1']
	m['L'], m['l'] = m['1'], m['1']
	return m
}()

// String returns the Crockford Base32 representation.
func (u SixID) String() string {
	result := make([]byte, 0, 10)
	var bits, offset uint

	for i := 0; i < len(u); i++ {
		bits |= uint(u[i]) << offset
		offset += 8
		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}
	return string(result)
}

// IsZero reports whether the id is unset. Used by the BSON encoder for omitempty.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

// MarshalBSONValue stores the id as BinData subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, sixIDSubtype, u[:]), nil
}

// UnmarshalBSONValue reads a BinData value written by MarshalBSONValue.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return fmt.Errorf("cannot decode BSON %s into SixID", t)
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("malformed BSON binary for SixID")
	}
	if len(bin) != len(u) {
		return fmt.Errorf("invalid SixID length %d (subtype 0x%x)", len(bin), subtype)
	}
	copy(u[:], bin)
	return nil
}

// MarshalJSON renders the id as its Crockford string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts the Crockford string form.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalText lets SixID be used as a map key and in query binding.
func (u SixID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (u *SixID) UnmarshalText(text []byte) error {
	parsed, err := ParseSixID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
