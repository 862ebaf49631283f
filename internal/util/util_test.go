package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	Name  string `json:"child_name" jsonschema:"required,minLength=1,description=First name of the child"`
	Tier  string `json:"tier,omitempty" jsonschema:"enum=beginner,enum=advanced"`
	Count int    `json:"count,omitempty"`
}

func TestCreateSchema_FromTags(t *testing.T) {
	schema := CreateSchema(lookupArgs{})

	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.Equal(t, []any{"child_name"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	name := props["child_name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "First name of the child", name["description"])

	tier := props["tier"].(map[string]any)
	assert.Equal(t, []any{"beginner", "advanced"}, tier["enum"])

	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, map[string]any{}, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(&lookupArgs{})

	require.NoError(t, ValidateParameters(map[string]any{"child_name": "Emma"}, schema))
	require.NoError(t, ValidateParameters(map[string]any{"child_name": "Emma", "extra": true}, schema))

	var verr *ValidationError

	err := ValidateParameters(map[string]any{}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "child_name", verr.Field)

	err = ValidateParameters(map[string]any{"child_name": 7}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "expected type string")

	err = ValidateParameters(map[string]any{"child_name": "  "}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "at least 1")

	err = ValidateParameters(map[string]any{"child_name": "Emma", "tier": "expert"}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tier", verr.Field)

	assert.NoError(t, ValidateParameters(map[string]any{"child_name": "Emma", "count": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"child_name": "Emma", "count": 2.5}, schema))
}

func TestValidateParameters_RequiredAsStrings(t *testing.T) {
	schema := map[string]any{"required": []string{"agent"}}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("Keep answers under {{.max_chars}} characters. Learner: {{default \"friend\" .learner}}.", map[string]any{"max_chars": 200})
	require.NoError(t, err)
	assert.Equal(t, "Keep answers under 200 characters. Learner: friend.", out)

	out, err = RenderTemplate("Words: {{join \", \" .words}}. Isn't it fun?", map[string]any{"words": []string{"the", "and"}})
	require.NoError(t, err)
	assert.Equal(t, "Words: the, and. Isn't it fun?", out)

	_, err = RenderTemplate("{{ .broken", nil)
	assert.Error(t, err)
}
