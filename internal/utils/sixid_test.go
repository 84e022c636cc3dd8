package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSixID_StringParse(t *testing.T) {
	id := SixID{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB}
	s := id.String()
	assert.Len(t, s, 10)

	parsed, err := ParseSixID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	lower, err := ParseSixID(strings.ToLower(s))
	require.NoError(t, err)
	assert.Equal(t, id, lower)
}

func TestSixID_ParseRejectsGarbage(t *testing.T) {
	_, err := ParseSixID("")
	assert.Error(t, err)
	_, err = ParseSixID("ABC")
	assert.Error(t, err)
	_, err = ParseSixID("UUUUUUUUUU") // U is not in the alphabet
	assert.Error(t, err)
}

func TestSixID_BSONUsesCustomSubtype(t *testing.T) {
	type doc struct {
		ID    SixID  `bson:"_id"`
		Owner *SixID `bson:"owner,omitempty"`
	}
	owner := NewSixID()
	in := doc{ID: NewSixID(), Owner: &owner}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	subtype, data := bson.Raw(raw).Lookup("_id").Binary()
	assert.Equal(t, byte(0x80), subtype)
	assert.Equal(t, in.ID[:], data)

	var out doc
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, in.ID, out.ID)
	require.NotNil(t, out.Owner)
	assert.Equal(t, owner, *out.Owner)
}

func TestNewSixIDHook(t *testing.T) {
	forced := SixID{9, 9, 9, 9, 9, 9}
	NewSixIDHook = func() (SixID, bool) { return forced, true }
	defer func() { NewSixIDHook = nil }()

	assert.Equal(t, forced, NewSixID())
}
