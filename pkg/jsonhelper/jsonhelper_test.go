package jsonhelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAndPickString(t *testing.T) {
	m, err := Fields([]byte(`{"ip":"","query":"1.2.3.4","asn":1234,"org":null}`))
	require.NoError(t, err)

	assert.Equal(t, "1.2.3.4", PickString(m, "ip", "query"))
	assert.Equal(t, "", PickString(m, "org"))
	assert.Equal(t, "", PickString(m, "asn"))
	assert.Equal(t, "", PickString(m, "missing"))
}

func TestFieldsRejectsNonObject(t *testing.T) {
	_, err := Fields([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	type geo struct {
		Query string `json:"query"`
	}
	b, err := Encode(geo{Query: "1.1.1.1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"1.1.1.1"}`, string(b))

	g, err := Decode[geo](b)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", g.Query)
}
