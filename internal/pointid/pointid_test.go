package pointid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRawNumeric(t *testing.T) {
	k := FromRaw("42")
	assert.True(t, k.IsNumeric())
	assert.Equal(t, uint64(42), k.Uint64())
	assert.Equal(t, "42", k.String())
}

func TestFromRawUUIDPassThrough(t *testing.T) {
	k := FromRaw("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.False(t, k.IsNumeric())
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", k.String())
}

func TestFromRawUUIDCanonicalized(t *testing.T) {
	k := FromRaw("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", k.String())
}

func TestFromRawDerivedDeterministic(t *testing.T) {
	a := FromRaw("my_show_1_17")
	b := FromRaw("my_show_1_17")
	c := FromRaw("my_show_1_18")
	assert.False(t, a.IsNumeric())
	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	// derived keys are canonical uuids
	assert.Len(t, a.String(), 36)
}

func TestFromRawNumericOverflow(t *testing.T) {
	// 21 digits cannot fit uint64, falls to a derived uuid
	k := FromRaw("123456789012345678901")
	assert.False(t, k.IsNumeric())
	assert.Len(t, k.String(), 36)
	assert.Equal(t, k.String(), FromRaw("123456789012345678901").String())
}

func TestFromRawEmpty(t *testing.T) {
	k := FromRaw("")
	assert.False(t, k.IsNumeric())
	assert.Len(t, k.String(), 36)
}
