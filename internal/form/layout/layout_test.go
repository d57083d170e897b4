package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

const boxConfig = `{"boxes":[{"id":"box_0","title":"Address","fields":[
	{"id":"street","type":"text","label":"Street"},
	{"id":"city","type":"text","label":"City"}
]}]}`

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(TypeGrid, json.RawMessage(`{"gridColumns":2,"columnDefs":[{"id":"c1","width":6},{"id":"c2","width":6}],"rows":[{"id":"r1","cells":["a",""]}]}`))
	require.NoError(t, err)
	grid := cfg.(*GridConfig)
	assert.Equal(t, 2, grid.GridColumns)
	assert.Equal(t, []string{"a", ""}, grid.Rows[0].Cells)

	cfg, err = DecodeConfig(TypeGroup, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.(*GroupConfig).Groups)

	_, err = DecodeConfig("tabs", nil)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DecodeConfig(TypeBox, json.RawMessage(`{"boxes":"nope"}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(TypeBox, json.RawMessage(boxConfig)))
	assert.ErrorIs(t, ValidateConfig(TypeGrid, json.RawMessage(`{"gridColumns":2,"columnDefs":[{"id":"c1","width":13},{"id":"c2","width":1}]}`)), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(TypeGrid, json.RawMessage(`{"gridColumns":1,"rows":[{"id":"r","cells":["a","b"]}]}`)), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(TypeGroup, json.RawMessage(`{"groups":[{"id":"g"},{"id":"g"}]}`)), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(TypeBox, json.RawMessage(`{"boxes":[{"id":"b","fields":[{"id":"x","type":"text"},{"id":"x","type":"text"}]}]}`)), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(TypeBox, json.RawMessage(`{"boxes":[{"id":"a","fields":[{"id":"x","type":"text"}]},{"id":"b","fields":[{"id":"x","type":"text"}]}]}`)), ErrInvalidConfig)
}

func TestAddBoxRemapsTemplateIDs(t *testing.T) {
	cfg, err := DecodeConfig(TypeBox, json.RawMessage(boxConfig))
	require.NoError(t, err)
	boxes := cfg.(*BoxConfig)

	second, err := boxes.AddBox("")
	require.NoError(t, err)
	assert.Equal(t, "box_1", second.ID)
	assert.Equal(t, "Address 2", second.Title)
	assert.Equal(t, "street_1", second.Fields[0].Common().ID)
	assert.Equal(t, "City", second.Fields[1].Common().Label)

	third, err := boxes.AddBox("Billing")
	require.NoError(t, err)
	assert.Equal(t, "city_2", third.Fields[1].Common().ID)
	require.Len(t, boxes.Boxes, 3)
	assert.NoError(t, boxes.Validate())

	_, err = (&BoxConfig{}).AddBox("x")
	assert.ErrorIs(t, err, ErrNoTemplateBox)
}

func TestAddBoxAfterRemovedBox(t *testing.T) {
	cfg, err := DecodeConfig(TypeBox, json.RawMessage(boxConfig))
	require.NoError(t, err)
	boxes := cfg.(*BoxConfig)
	for range 3 {
		_, err = boxes.AddBox("")
		require.NoError(t, err)
	}
	// 删除中间的 box_1，剩余 box_0 box_2 box_3
	boxes.Boxes = append(boxes.Boxes[:1], boxes.Boxes[2:]...)

	added, err := boxes.AddBox("")
	require.NoError(t, err)
	assert.Equal(t, "box_4", added.ID)
	assert.Equal(t, "street_4", added.Fields[0].Common().ID)
	assert.NoError(t, boxes.Validate())
}

func TestSyncBoxes(t *testing.T) {
	cfg, err := DecodeConfig(TypeBox, json.RawMessage(boxConfig))
	require.NoError(t, err)
	boxes := cfg.(*BoxConfig)
	_, err = boxes.AddBox("Second")
	require.NoError(t, err)

	boxes.Boxes[0].Fields = append(boxes.Boxes[0].Fields, &schema.TextField{Base: schema.Base{ID: "zip", Type: schema.TypeText, Label: "Zip"}})
	boxes.SyncBoxes()

	require.Len(t, boxes.Boxes[1].Fields, 3)
	assert.Equal(t, "zip_1", boxes.Boxes[1].Fields[2].Common().ID)
	assert.Equal(t, "Second", boxes.Boxes[1].Title)
	assert.Equal(t, "box_1", boxes.Boxes[1].ID)
}

func TestFields(t *testing.T) {
	top := schema.FieldList{&schema.TextField{Base: schema.Base{ID: "a", Type: schema.TypeText}}}
	got, err := Fields(TypeGrid, top, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = Fields(TypeBox, nil, json.RawMessage(boxConfig))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "street", got[0].Common().ID)

	got, err = Fields(TypeGroup, nil, json.RawMessage(`{"groups":[{"id":"g1","name":"One","fields":[{"id":"x","type":"email"}]},{"id":"g2","name":"Two","fields":[{"id":"y","type":"date"}],"layoutRef":"lay_1"}]}`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, schema.TypeDate, got[1].Common().Type)
}

func TestExpandLayoutRefs(t *testing.T) {
	docs := map[string]struct {
		t   Type
		raw string
	}{
		"addr":  {TypeBox, boxConfig},
		"outer": {TypeGroup, `{"groups":[{"id":"g1","fields":[{"id":"name","type":"text"}]},{"id":"g2","fields":[],"layoutRef":"addr"},{"id":"g3","fields":[{"id":"note","type":"textarea"}]}]}`},
		"loop":  {TypeGroup, `{"groups":[{"id":"g","fields":[{"id":"z","type":"text"}],"layoutRef":"loop"},{"id":"h","fields":[],"layoutRef":"missing"}]}`},
	}
	resolve := func(id string) (Type, schema.FieldList, json.RawMessage, bool, error) {
		d, ok := docs[id]
		if !ok {
			return "", nil, nil, false, nil
		}
		return d.t, nil, json.RawMessage(d.raw), true, nil
	}

	got, err := Expand("outer", TypeGroup, nil, json.RawMessage(docs["outer"].raw), resolve)
	require.NoError(t, err)
	var ids []string
	for _, f := range got {
		ids = append(ids, f.Common().ID)
	}
	assert.Equal(t, []string{"name", "street", "city", "note"}, ids)

	got, err = Expand("loop", TypeGroup, nil, json.RawMessage(docs["loop"].raw), resolve)
	require.NoError(t, err)
	require.Len(t, got, 1, "self reference and missing layouts add nothing")
	assert.Equal(t, "z", got[0].Common().ID)
}
