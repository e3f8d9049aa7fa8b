package langid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/tokenizer"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	table, err := model.NewEmbeddedLoader().Load(model.ModuleLanguages)
	require.NoError(t, err)
	return New(table.(*model.LanguageTable), DefaultTopK)
}

func TestClassify_Statistics(t *testing.T) {
	c := newClassifier(t)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"french numerals", "Quatre vingt douze Ave des Champs-Élysées", "fr"},
		{"german compound", "Marktstrasse", "de"},
		{"dutch street", "Hoofdstraat", "nl"},
		{"english", "4998 Vanderbilt Dr, Columbus, OH 43213", "en"},
		{"spanish", "Museo del Prado C. de Ruiz de Alarcón, 23 28014 Madrid, España", "es"},
		{"russian", "улица Ленина 5", "ru"},
		{"thai", "มงแตร", "th"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := c.Classify(tokenizer.Tokenize(tt.input), nil)
			require.NoError(t, err)
			require.NotEmpty(t, scores)
			assert.Equal(t, tt.want, scores[0].Language)
			assert.LessOrEqual(t, len(scores), DefaultTopK)

			var sum float64
			for i, s := range scores {
				sum += s.Score
				if i > 0 {
					assert.GreaterOrEqual(t, scores[i-1].Score, s.Score)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestClassify_HintRestricts(t *testing.T) {
	c := newClassifier(t)
	scores, err := c.Classify(tokenizer.Tokenize("Marktstrasse"), &Hint{Languages: []string{"FR", "en", "fr"}})
	require.NoError(t, err)
	assert.Equal(t, []Score{{"fr", 0.5}, {"en", 0.5}}, scores)
}

func TestClassify_UnknownHint(t *testing.T) {
	c := newClassifier(t)
	_, err := c.Classify(tokenizer.Tokenize("Main St"), &Hint{Languages: []string{"xx"}})
	assert.ErrorIs(t, err, ErrUnknownLanguageCode)
	assert.Contains(t, err.Error(), `"xx"`)
}

func TestClassify_TiesFollowPriority(t *testing.T) {
	c := newClassifier(t)
	scores, err := c.Classify(tokenizer.Tokenize("Xyzzy"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr", "de"}, Languages(scores))
	for _, s := range scores {
		assert.InDelta(t, 1.0/3, s.Score, 1e-9)
	}
}

func TestClassify_Fallback(t *testing.T) {
	c := newClassifier(t)

	scores, err := c.Classify(tokenizer.Tokenize("12345"), nil)
	require.NoError(t, err)
	assert.Equal(t, []Score{{"en", 1}}, scores)

	scores, err = c.Classify(tokenizer.Tokenize("12345"), &Hint{Country: "zz"})
	require.NoError(t, err)
	assert.Equal(t, "en", scores[0].Language, "unknown country is ignored")

	scores, err = c.Classify(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "en", scores[0].Language)
}

func TestClassify_CountryPrior(t *testing.T) {
	c := newClassifier(t)
	scores, err := c.Classify(tokenizer.Tokenize("12345"), &Hint{Country: "DE"})
	require.NoError(t, err)
	assert.Equal(t, []Score{{"de", 1}}, scores)

	scores, err = c.Classify(tokenizer.Tokenize("Xyzzy"), &Hint{Country: "nl"})
	require.NoError(t, err)
	assert.Equal(t, "nl", scores[0].Language)
}
