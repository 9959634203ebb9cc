package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBarcode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "8 digits", input: "04963406", want: "04963406"},
		{name: "13 digits", input: "3017620422003", want: "3017620422003"},
		{name: "14 digits", input: "12345678901231", want: "12345678901231"},
		{name: "trims whitespace", input: "  781138811156\n", want: "781138811156"},
		{name: "too short", input: "1234567", wantErr: true},
		{name: "too long", input: "123456789012345", wantErr: true},
		{name: "letters", input: "12345678A", wantErr: true},
		{name: "inner space", input: "1234 5678", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "negative sign", input: "-12345678", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBarcode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				assert.False(t, IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewProviderError(SourceGoUPC, ErrConnection, "could not reach server", cause)

	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "could not reach server", Reason(err))
	assert.Contains(t, err.Error(), "go-upc")

	retry := NewRetryableError(SourceGoUPC, ErrRateLimited, "too many requests")
	assert.True(t, IsRetryable(retry))
	assert.True(t, IsRetryable(errors.Join(errors.New("outer"), retry)))
	assert.ErrorIs(t, retry, ErrRateLimited)
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(NewProviderError("gemini", ErrCredentialMissing, "", nil)))
	assert.True(t, IsSkip(NewProviderError("bgremoval", ErrUnavailable, "", nil)))
	assert.False(t, IsSkip(NewProviderError("gemini", ErrProcessing, "", nil)))
	assert.False(t, IsSkip(nil))
}

func TestQualityForWidth(t *testing.T) {
	assert.Equal(t, QualityHigh, QualityForWidth(800))
	assert.Equal(t, QualityHigh, QualityForWidth(1200))
	assert.Equal(t, QualityMedium, QualityForWidth(400))
	assert.Equal(t, QualityMedium, QualityForWidth(799))
	assert.Equal(t, QualityLow, QualityForWidth(399))
	assert.Equal(t, QualityLow, QualityForWidth(300))
}
