package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"lowercase hex", "0x" + strings.Repeat("a", 40), true},
		{"uppercase hex", "0x" + strings.Repeat("A", 40), true},
		{"mixed digits", "0x12aB34cD" + strings.Repeat("0", 32), true},
		{"too short", "0x" + strings.Repeat("a", 39), false},
		{"too long", "0x" + strings.Repeat("a", 41), false},
		{"missing prefix", strings.Repeat("a", 42), false},
		{"non hex character", "0x" + strings.Repeat("g", 40), false},
		{"surrounding whitespace", " 0x" + strings.Repeat("a", 40), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidAddress(tt.address))
		})
	}
}

func TestOtherParticipant(t *testing.T) {
	self := "0x" + strings.Repeat("a", 40)
	peer := "0x" + strings.Repeat("b", 40)

	tests := []struct {
		name      string
		channelID string
		want      string
	}{
		{"self first", self + ":" + peer, peer},
		{"self second", peer + ":" + self, peer},
		{"case insensitive self match", strings.ToUpper(self) + ":" + peer, peer},
		{"no separator", "not-a-channel-id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OtherParticipant(tt.channelID, self))
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress("0xAbC", "0xabc"))
	assert.True(t, SameAddress(" 0xabc ", "0xabc"))
	assert.False(t, SameAddress("0xabc", "0xabd"))
}
