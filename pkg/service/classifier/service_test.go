package classifier_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/types"
	"github.com/secmon-lab/augur/pkg/service/classifier"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{`{"intent":"none"}`}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	sessionCount int
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.sessionCount++
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func respondWith(text string) *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

func TestNew_RequiresLLMClient(t *testing.T) {
	_, err := classifier.New(nil)
	gt.Error(t, err)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	candidates := []types.IntentLabel{"greeting", "faq", types.IntentNone}

	t.Run("returns a candidate label", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"intent":"greeting"}`))
		gt.NoError(t, err).Required()
		label, err := svc.Classify(ctx, "hello there", candidates)
		gt.NoError(t, err)
		gt.Value(t, label).Equal(types.IntentLabel("greeting"))
	})

	t.Run("normalizes the answer before matching", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"intent":"  Greeting \n"}`))
		gt.NoError(t, err).Required()
		label, err := svc.Classify(ctx, "hello there", candidates)
		gt.NoError(t, err)
		gt.Value(t, label).Equal(types.IntentLabel("greeting"))
	})

	t.Run("answer outside the candidate set becomes none", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"intent":"weather"}`))
		gt.NoError(t, err).Required()
		label, err := svc.Classify(ctx, "hello there", candidates)
		gt.NoError(t, err)
		gt.Value(t, label).Equal(types.IntentNone)
	})

	t.Run("explicit none answer", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"intent":"none"}`))
		gt.NoError(t, err).Required()
		label, err := svc.Classify(ctx, "what is the meaning of life", candidates)
		gt.NoError(t, err)
		gt.Value(t, label).Equal(types.IntentNone)
	})

	t.Run("malformed response is an error", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`not json`))
		gt.NoError(t, err).Required()
		_, err = svc.Classify(ctx, "hello there", candidates)
		gt.Error(t, err)
	})
}

func TestGenerateExamples(t *testing.T) {
	ctx := context.Background()
	def := model.IntentDefinition{
		Label:       "greeting",
		Description: "The user greets the bot",
		Examples:    []string{"hello", "good morning"},
	}

	t.Run("returns generated examples", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"examples":["hi there","hey bot","howdy"]}`))
		gt.NoError(t, err).Required()
		examples, err := svc.GenerateExamples(ctx, def, 3)
		gt.NoError(t, err)
		gt.Array(t, examples).Length(3)
	})

	t.Run("drops blanks and normalized duplicates", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`{"examples":["hi there","  HI THERE ","","hey"]}`))
		gt.NoError(t, err).Required()
		examples, err := svc.GenerateExamples(ctx, def, 4)
		gt.NoError(t, err)
		gt.Array(t, examples).Length(2)
		gt.Value(t, examples[0]).Equal("hi there")
		gt.Value(t, examples[1]).Equal("hey")
	})

	t.Run("malformed response is an error", func(t *testing.T) {
		svc, err := classifier.New(respondWith(`["not","an","object"`))
		gt.NoError(t, err).Required()
		_, err = svc.GenerateExamples(ctx, def, 3)
		gt.Error(t, err)
	})

	t.Run("zero count skips the LLM call", func(t *testing.T) {
		client := &mockLLMClient{}
		svc, err := classifier.New(client)
		gt.NoError(t, err).Required()
		examples, err := svc.GenerateExamples(ctx, def, 0)
		gt.NoError(t, err)
		gt.Value(t, examples).Nil()
		gt.Value(t, client.sessionCount).Equal(0)
	})
}
