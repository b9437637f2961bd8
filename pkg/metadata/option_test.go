package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage(t *testing.T) {
	rec, err := Parse([]byte(`{"externalGradingOptions": {"enabled": true, "image": "ubcmds/grader-r:2024", "timeout": 60}}`))
	require.NoError(t, err)

	img, err := rec.Image(ExternalGradingOptionsKey)
	require.NoError(t, err)
	assert.Equal(t, "ubcmds/grader-r:2024", img)
}

func TestValidateOption_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "missing key", input: `{}`, contains: "not found"},
		{name: "not an object", input: `{"workspaceOptions": "ubcmds/base-r:v1"}`, contains: "invalid workspaceOptions"},
		{name: "image missing", input: `{"workspaceOptions": {"port": 80}}`, contains: "image"},
		{name: "image not a string", input: `{"workspaceOptions": {"image": 12}}`, contains: "workspaceOptions.image"},
		{name: "image empty", input: `{"workspaceOptions": {"image": ""}}`, contains: "workspaceOptions.image"},
		{name: "null option", input: `{"workspaceOptions": null}`, contains: "invalid workspaceOptions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			err = rec.ValidateOption(WorkspaceOptionsKey)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSetImage_LeavesSiblingsInPlace(t *testing.T) {
	rec, err := Parse([]byte(`{"uuid": "1", "workspaceOptions": {"gradedFiles": ["a.ipynb"], "image": "ubcmds/base-r:v1", "port": 8888}}`))
	require.NoError(t, err)

	require.NoError(t, rec.SetImage(WorkspaceOptionsKey, "ubcmds/base-r:v2"))

	opt, err := rec.Object(WorkspaceOptionsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"gradedFiles", "image", "port"}, opt.Keys())
	img, err := opt.String(ImageField)
	require.NoError(t, err)
	assert.Equal(t, "ubcmds/base-r:v2", img)
	assert.Equal(t, []string{"uuid", "workspaceOptions"}, rec.Keys())
}

func TestSetImage_RejectsMalformedOption(t *testing.T) {
	rec, err := Parse([]byte(`{"workspaceOptions": []}`))
	require.NoError(t, err)
	assert.Error(t, rec.SetImage(WorkspaceOptionsKey, "ubcmds/base-r:v2"))
}
