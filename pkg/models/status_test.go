package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowStatus_String(t *testing.T) {
	tests := []struct {
		status RowStatus
		want   string
	}{
		{RowStatusUnset, "unset"},
		{RowStatusOK, "ok"},
		{RowStatusNotFound, "not_found"},
		{RowStatusError, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestRowStatus_IsValid(t *testing.T) {
	tests := []struct {
		status RowStatus
		want   bool
	}{
		{RowStatusOK, true},
		{RowStatusNotFound, true},
		{RowStatusError, true},
		{RowStatusUnset, false},
		{RowStatus("arbitrary"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsValid(), "RowStatus(%q).IsValid()", string(tt.status))
	}
}

func TestDocStatus_String(t *testing.T) {
	tests := []struct {
		status DocStatus
		want   string
	}{
		{DocStatusUnset, "unset"},
		{DocStatusLinked, "linked"},
		{DocStatusNoPDF, "no_pdf"},
		{DocStatusError, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestDocStatus_IsValid(t *testing.T) {
	tests := []struct {
		status DocStatus
		want   bool
	}{
		{DocStatusLinked, true},
		{DocStatusNoPDF, true},
		{DocStatusError, true},
		{DocStatusUnset, false},
		{DocStatus("arbitrary"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsValid(), "DocStatus(%q).IsValid()", string(tt.status))
	}
}
