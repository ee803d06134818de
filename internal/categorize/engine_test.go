package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingSet() map[string][]string {
	return map[string][]string{
		"Food & Dining":  {"restaurant", "coffee", "pizza"},
		"Transportation": {"uber", "taxi", "fuel"},
		"Other":          {},
	}
}

func TestEngine_TrainNeedsTwoClasses(t *testing.T) {
	e := NewEngine()

	err := e.Train(map[string][]string{})
	assert.ErrorIs(t, err, ErrTooFewCategories)

	// A lone category with keywords is still not enough.
	err = e.Train(map[string][]string{"Food & Dining": {"pizza"}})
	assert.ErrorIs(t, err, ErrTooFewCategories)
	assert.False(t, e.Trained())
}

func TestEngine_Classify(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Train(trainingSet()))
	require.True(t, e.Trained())

	predictions := e.Classify(Normalize("uber trip downtown"))
	require.NotEmpty(t, predictions)
	assert.Equal(t, "Transportation", predictions[0].Label)

	// Scores are posterior probabilities over the trained classes.
	var sum float64
	for _, p := range predictions {
		sum += p.Score
	}
	assert.InDelta(t, 1.0, sum, 0.001)

	// Sorted descending.
	for i := 1; i < len(predictions); i++ {
		assert.GreaterOrEqual(t, predictions[i-1].Score, predictions[i].Score)
	}
}

func TestEngine_ClassifyStemmedKeyword(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Train(trainingSet()))

	// "coffee" does not survive stemming unchanged, so training and
	// classification must agree on the stemmed form rather than stem the
	// query a second time.
	predictions := e.Classify(Normalize("morning coffee"))
	require.NotEmpty(t, predictions)
	assert.Equal(t, "Food & Dining", predictions[0].Label)
}

func TestEngine_ClassifyUnknownTokens(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Train(trainingSet()))

	assert.Nil(t, e.Classify(Normalize("xyzzy plugh")))
	assert.Nil(t, e.Classify(""))
}

func TestEngine_ClassifyUntrained(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.Classify("uber"))
}

func TestEngine_KeywordlessCategoryContributesNoClass(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Train(trainingSet()))

	predictions := e.Classify(Normalize("coffee"))
	require.NotEmpty(t, predictions)
	for _, p := range predictions {
		assert.NotEqual(t, "Other", p.Label)
	}
}

func TestEngine_RetrainReplacesModel(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Train(trainingSet()))

	// After retraining without the fuel keyword the token is unknown.
	require.NoError(t, e.Train(map[string][]string{
		"Food & Dining":  {"restaurant"},
		"Transportation": {"uber"},
	}))
	assert.Nil(t, e.Classify(Normalize("fuel")))
}
