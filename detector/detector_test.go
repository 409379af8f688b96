package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"generic", "What is Paracetamol used for?", []string{"paracetamol"}},
		{"order of appearance", "compare ibuprofen with paracetamol", []string{"ibuprofen", "paracetamol"}},
		{"dosage form", "can I take dolo 650 twice", []string{"dolo"}},
		{"tablet pattern", "is sinarest tablet safe", []string{"sinarest"}},
		{"stop word before tablet", "should I crush this tablet", []string{}},
		{"capsule pattern", "I have becosules capsules at home", []string{"becosules"}},
		{"no substring match", "amoxycillin dosage", []string{"amoxycillin"}},
		{"duplicates collapse", "aspirin or aspirin?", []string{"aspirin"}},
		{"nothing", "I have a headache", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Extract(tt.text))
		})
	}
}

func TestExtractExtraNames(t *testing.T) {
	d := New("Crocin Advance", "Sinarest", "ab")
	assert.Equal(t, []string{"crocin advance"}, d.Extract("is crocin advance stronger"))
	assert.Equal(t, []string{"sinarest"}, d.Extract("Sinarest for cold"))

	d = New("Crocin Advance", "Dolo 650")
	assert.Equal(t, []string{"dolo 650"}, d.Extract("side effects of dolo 650"))
	assert.Equal(t, "dolo 650", d.Last("side effects of dolo 650"))
}

func TestLast(t *testing.T) {
	d := New()
	assert.Equal(t, "metformin", d.Last("I take aspirin and metformin"))
	assert.Equal(t, "", d.Last("hello there"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		text     string
		medicine string
		want     string
		changed  bool
	}{
		{"what are its side effects", "paracetamol", "what are paracetamol's side effects", true},
		{"is it safe in pregnancy", "paracetamol", "is paracetamol safe in pregnancy", true},
		{"it's bitter, can I mix this with milk", "cyra", "cyra is bitter, can I mix cyra with milk", true},
		{"What about THOSE", "aspirin", "What about aspirin", true},
		{"is iterative fine", "aspirin", "is iterative fine", false},
		{"what are its side effects", "", "what are its side effects", false},
	}
	for _, tt := range tests {
		got, changed := Resolve(tt.text, tt.medicine)
		assert.Equal(t, tt.want, got, tt.text)
		assert.Equal(t, tt.changed, changed, tt.text)
	}
}

func TestKeywordHelpers(t *testing.T) {
	assert.True(t, IsMedicineQuery("Tell me about Cetirizine"))
	assert.False(t, IsMedicineQuery("how do I sleep better"))
	assert.True(t, WantsDetails("what is the dosage of dolo"))
	assert.False(t, WantsDetails("what is dolo"))
}
