package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

func TestRadioDefaultsHaveThreeOptions(t *testing.T) {
	f, ok := Default().Instantiate(schema.TypeRadio)
	require.True(t, ok)

	choice := f.(*schema.ChoiceField)
	require.Len(t, choice.Items, 3)
	for i, want := range []string{"Option 1", "Option 2", "Option 3"} {
		assert.Equal(t, want, choice.Items[i].Label)
	}
	assert.Equal(t, "option_1", choice.Items[0].Value)
	assert.Equal(t, "option_3", choice.Items[2].Value)
	assert.NotEmpty(t, choice.ID)
}

func TestInstantiateReturnsIndependentValues(t *testing.T) {
	a, _ := Default().Instantiate(schema.TypeCheckbox)
	b, _ := Default().Instantiate(schema.TypeCheckbox)
	assert.NotEqual(t, a.Common().ID, b.Common().ID)

	a.(*schema.ChoiceField).Items[0].Label = "mutated"
	c, _ := Default().Defaults(schema.TypeCheckbox)
	assert.Equal(t, "Option 1", c.(*schema.ChoiceField).Items[0].Label)
	assert.Empty(t, c.Common().ID)
}

func TestUnknownTypeIsNotInstantiated(t *testing.T) {
	_, ok := Default().Instantiate("hologram")
	assert.False(t, ok)
}

func TestEveryKnownTypeIsRegistered(t *testing.T) {
	reg := Default()
	for _, ft := range schema.AllTypes {
		f, ok := reg.Instantiate(ft)
		require.True(t, ok, "type %s", ft)
		assert.Equal(t, ft, f.Common().Type)
		assert.Equal(t, schema.MaxWidthColumns, f.Common().WidthColumns)
	}
	assert.Len(t, reg.Items(), len(schema.AllTypes))
}
