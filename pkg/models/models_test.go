package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputStatus_String(t *testing.T) {
	tests := []struct {
		status OutputStatus
		want   string
	}{
		{OutputStatusUnset, "unset"},
		{OutputStatusWritten, "written"},
		{OutputStatusUnchanged, "unchanged"},
		{OutputStatusCopied, "copied"},
		{OutputStatusFailed, "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestOutputStatus_IsValidAndSucceeded(t *testing.T) {
	tests := []struct {
		status    OutputStatus
		valid     bool
		succeeded bool
	}{
		{OutputStatusWritten, true, true},
		{OutputStatusUnchanged, true, true},
		{OutputStatusCopied, true, true},
		{OutputStatusFailed, true, false},
		{OutputStatusUnset, false, false},
		{OutputStatus("arbitrary"), false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.status.IsValid(), "OutputStatus(%q).IsValid()", string(tt.status))
		assert.Equal(t, tt.succeeded, tt.status.Succeeded(), "OutputStatus(%q).Succeeded()", string(tt.status))
	}
}

func TestPageRecord_EmptyHeadingsEncodeAsArray(t *testing.T) {
	data, err := json.Marshal(PageRecord{URL: "/", Headings: []HeadingRecord{}, BuiltAt: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"headings":[]`)
	assert.NotContains(t, string(data), "token_count")
	assert.NotContains(t, string(data), "content_hash")
}
