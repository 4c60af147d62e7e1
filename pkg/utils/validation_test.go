package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	TargetID  string `json:"target_id" validate:"required_without=TargetURL,max=8"`
	TargetURL string `json:"target_url" validate:"omitempty,url"`
	Mode      string `json:"mode,omitempty" validate:"omitempty,oneof=all next"`
}

type sampleConfig struct {
	Backend string `yaml:"store_backend" validate:"oneof=memory redis"`
	Hidden  string `yaml:"-" validate:"required"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sampleRequest{TargetID: "abc"}))
	assert.NoError(t, ValidateStruct(&sampleRequest{TargetURL: "https://trello.com/c/x"}))
}

func TestValidateStruct_FieldErrorsUseWireNames(t *testing.T) {
	err := ValidateStruct(&sampleRequest{TargetURL: "not a url", Mode: "some"})
	require.Error(t, err)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "target_url must be a valid URL", fields["target_url"])
	assert.Equal(t, "mode must be one of [all next]", fields["mode"])
	assert.Equal(t, "mode must be one of [all next]; target_url must be a valid URL", err.Error())

	details := fields.Details()
	assert.Len(t, details, 2)
	assert.Contains(t, details, "mode")
}

func TestValidateStruct_Messages(t *testing.T) {
	err := ValidateStruct(&sampleRequest{})
	assert.EqualError(t, err, "target_id or TargetURL is required")

	err = ValidateStruct(&sampleRequest{TargetID: "much-too-long"})
	assert.EqualError(t, err, "target_id must be at most 8 long")
}

func TestValidateStruct_YAMLNamesAndSkippedTag(t *testing.T) {
	err := ValidateStruct(&sampleConfig{Backend: "postgres"})
	require.Error(t, err)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "store_backend")
	assert.Equal(t, "Hidden is required", fields["Hidden"])
}
