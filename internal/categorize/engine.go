package categorize

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jbrukh/bayesian"
)

// ErrTooFewCategories is returned when training is attempted with fewer
// than two categories carrying keywords; the underlying naive Bayes model
// needs at least two classes to discriminate between.
var ErrTooFewCategories = errors.New("need at least two categories with keywords to train")

// Prediction is one ranked classification outcome.
type Prediction struct {
	Label string
	Score float64
}

// Engine is a naive Bayes bag-of-tokens classifier over category keyword
// documents. Training builds a complete replacement model and publishes it
// atomically, so Classify may run concurrently with Train.
type Engine struct {
	model atomic.Pointer[bayesModel]
}

type bayesModel struct {
	classifier *bayesian.Classifier
	classes    []bayesian.Class
	vocabulary map[string]struct{}
}

func NewEngine() *Engine {
	return &Engine{}
}

// Train replaces the current model with one trained on the given keyword
// sets, keyed by category name. For each keyword three documents are
// synthesized (the bare keyword, "<keyword> store", "<keyword> payment")
// so that partial real-world phrases containing the keyword also match.
// Categories with no keywords contribute no class.
func (e *Engine) Train(keywordsByCategory map[string][]string) error {
	classes := make([]bayesian.Class, 0, len(keywordsByCategory))
	for name, keywords := range keywordsByCategory {
		if len(keywords) > 0 {
			classes = append(classes, bayesian.Class(name))
		}
	}
	if len(classes) < 2 {
		return ErrTooFewCategories
	}
	// Deterministic class order keeps scores reproducible across retrains.
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	m := &bayesModel{
		classifier: bayesian.NewClassifier(classes...),
		classes:    classes,
		vocabulary: make(map[string]struct{}),
	}

	for name, keywords := range keywordsByCategory {
		if len(keywords) == 0 {
			continue
		}
		class := bayesian.Class(name)
		for _, keyword := range keywords {
			for _, doc := range []string{keyword, keyword + " store", keyword + " payment"} {
				tokens := Tokenize(doc)
				if len(tokens) == 0 {
					continue
				}
				m.classifier.Learn(tokens, class)
				for _, tok := range tokens {
					m.vocabulary[tok] = struct{}{}
				}
			}
		}
	}

	e.model.Store(m)
	return nil
}

// Trained reports whether a model has been published.
func (e *Engine) Trained() bool {
	return e.model.Load() != nil
}

// Classify scores the normalized text against every trained class and
// returns predictions sorted by descending score. The scores are posterior
// probabilities and sum to one across classes. Untrained engines, empty
// input, and input containing no token seen during training all yield nil.
func (e *Engine) Classify(normalized string) []Prediction {
	m := e.model.Load()
	if m == nil || normalized == "" {
		return nil
	}

	// The input is already normalized and stemmed; splitting on spaces
	// keeps the tokens aligned with the training vocabulary instead of
	// stemming them a second time.
	tokens := strings.Fields(normalized)
	known := false
	for _, tok := range tokens {
		if _, ok := m.vocabulary[tok]; ok {
			known = true
			break
		}
	}
	if !known {
		return nil
	}

	scores, _, _ := m.classifier.ProbScores(tokens)
	predictions := make([]Prediction, len(m.classes))
	for i, class := range m.classes {
		predictions[i] = Prediction{Label: string(class), Score: scores[i]}
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	return predictions
}
