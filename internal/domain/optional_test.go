package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalStates(t *testing.T) {
	var unset Optional[string]
	assert.False(t, unset.Present())
	assert.Nil(t, unset.Ptr())

	cleared := Clear[string]()
	assert.True(t, cleared.Present())
	assert.True(t, cleared.IsNull())
	assert.Nil(t, cleared.Ptr())

	set := Set("x")
	v, ok := set.Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, "x", *set.Ptr())
}

func TestProfileUpdateFromJSON(t *testing.T) {
	var u ProfileUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"phone":null,"birthDate":"1988-02-29","fullName":"Ana"}`), &u))

	assert.True(t, u.Phone.IsNull())
	assert.False(t, u.AvatarURL.Present())
	d, ok := u.BirthDate.Value()
	require.True(t, ok)
	assert.Equal(t, NewDate(1988, time.February, 29), d)
	assert.False(t, u.Empty())
	assert.NoError(t, u.Validate())

	phone := "123"
	avatar := "a.png"
	c := Customer{FullName: "Old", Phone: &phone, AvatarURL: &avatar}
	u.Apply(&c)
	assert.Equal(t, "Ana", c.FullName)
	assert.Nil(t, c.Phone)
	assert.Equal(t, &avatar, c.AvatarURL)
	assert.Equal(t, "1988-02-29", c.BirthDate.String())
}

func TestProfileUpdateValidate(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	assert.ErrorIs(t, ProfileUpdate{FullName: Clear[string]()}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ProfileUpdate{FullName: Set("  ")}.Validate(), ErrInvalidInput)

	var u ProfileUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"birthDate":"04/05/1990"}`), &u))
}

func TestOptionalMarshal(t *testing.T) {
	raw, err := json.Marshal(ProfileUpdate{Phone: Set("1"), AvatarURL: Clear[string]()})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"phone":"1"`)
	assert.Contains(t, string(raw), `"avatarUrl":null`)
}
