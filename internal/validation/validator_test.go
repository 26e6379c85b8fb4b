package validation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Plain", "Ann", "Ann", nil},
		{"Trimmed", "  Bob  ", "Bob", nil},
		{"Apostrophe", "O'Brien", "O'Brien", nil},
		{"Unicode counted in runes", strings.Repeat("é", MaxNameLength), strings.Repeat("é", MaxNameLength), nil},
		{"Empty", "   ", "", ErrStringTooShort},
		{"Too long", strings.Repeat("a", MaxNameLength+1), "", ErrStringTooLong},
		{"Control char", "An\tn", "", ErrInvalidName},
		{"Script tag", "<script>x", "", ErrContainsXSSPattern},
		{"Javascript scheme", "javascript:go", "", ErrContainsXSSPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DisplayName(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRoomID(t *testing.T) {
	assert.NoError(t, ValidateRoomID("friday-night_2"))
	assert.ErrorIs(t, ValidateRoomID(""), ErrInvalidRoomID)
	assert.ErrorIs(t, ValidateRoomID("has space"), ErrInvalidRoomID)
	assert.ErrorIs(t, ValidateRoomID(strings.Repeat("r", 33)), ErrInvalidRoomID)
}

func TestValidateGameAction(t *testing.T) {
	for _, action := range ValidGameActions {
		assert.NoError(t, ValidateGameAction(action))
	}
	assert.ErrorIs(t, ValidateGameAction("bet"), ErrInvalidEnum)
	assert.ErrorIs(t, ValidateGameAction("FOLD"), ErrInvalidEnum)
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(1, 1, 50, "totalHands"))
	assert.NoError(t, ValidateIntRange(50, 1, 50, "totalHands"))
	assert.ErrorIs(t, ValidateIntRange(0, 1, 50, "totalHands"), ErrInvalidRange)
	assert.ErrorIs(t, ValidateIntRange(51, 1, 50, "totalHands"), ErrInvalidRange)
}

func TestValidateRequestID(t *testing.T) {
	assert.NoError(t, ValidateRequestID(""))
	assert.NoError(t, ValidateRequestID("3f1c9a"))
	assert.ErrorIs(t, ValidateRequestID(strings.Repeat("x", MaxRequestIDLength+1)), ErrStringTooLong)
}

func TestNonNegativeInt(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantErr error
	}{
		{"JSON float", float64(300), 300, nil},
		{"Zero", float64(0), 0, nil},
		{"Int", 7, 7, nil},
		{"json.Number", json.Number("1000"), 1000, nil},
		{"Missing", nil, 0, ErrInvalidNumber},
		{"String", "300", 0, ErrInvalidNumber},
		{"Bool", true, 0, ErrInvalidNumber},
		{"NaN", math.NaN(), 0, ErrInvalidNumber},
		{"Inf", math.Inf(1), 0, ErrInvalidNumber},
		{"Fraction", 12.5, 0, ErrInvalidNumber},
		{"Negative", float64(-100), 0, ErrInvalidRange},
		{"Huge", float64(1 << 40), 0, ErrInvalidRange},
		{"Bad json.Number", json.Number("abc"), 0, ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NonNegativeInt(tt.value, "amount")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
