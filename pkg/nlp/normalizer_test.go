package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/phase"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fillers removed",
			in:   "uh I will umm pay tomorrow",
			want: "I will pay tomorrow",
		},
		{
			name: "spoken contractions expanded",
			in:   "I'm gonna pay but I dunno the amount",
			want: "I'm going to pay but I do not know the amount",
		},
		{
			name: "whitespace collapsed",
			in:   "I   will    pay",
			want: "I will pay",
		},
		{
			name: "clean text unchanged",
			in:   "I will pay the balance on Friday",
			want: "I will pay the balance on Friday",
		},
		{
			name: "blank text passes through",
			in:   "  ",
			want: "  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeUtterances(t *testing.T) {
	utterances := []phase.NormalizedUtterance{
		{Speaker: phase.SpeakerAgent, Text: "um hello there", StartTime: 0.0, EndTime: 2.0},
		{Speaker: phase.SpeakerCustomer, Text: "I'm gonna pay", StartTime: 2.0, EndTime: 4.0},
	}

	normalized := NormalizeUtterances(testLogger(), utterances)
	require.Len(t, normalized, 2)

	assert.Equal(t, "hello there", normalized[0].Text)
	assert.Equal(t, "I'm going to pay", normalized[1].Text)
	assert.Equal(t, phase.SpeakerAgent, normalized[0].Speaker)
	assert.Equal(t, 2.0, normalized[1].StartTime)
}

func TestNormalizeUtterancesEmptyInput(t *testing.T) {
	assert.Nil(t, NormalizeUtterances(testLogger(), nil))
}
