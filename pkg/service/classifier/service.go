package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/types"
)

// Service answers intent classification questions through an LLM session
// and generates paraphrased training examples for intent definitions.
type Service struct {
	llmClient gollem.LLMClient
}

// New creates a classifier service with the provided LLM client.
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

type classifyResponse struct {
	Intent string `json:"intent"`
}

// Classify asks the LLM to pick one label for the text out of the given
// candidate set. An answer outside the candidate set is treated as no
// match, not as an error.
func (s *Service) Classify(ctx context.Context, text string, candidates []types.IntentLabel) (types.IntentLabel, error) {
	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(classifySchema()),
		gollem.WithSessionSystemPrompt(buildClassifySystemPrompt(candidates)),
	)
	if err != nil {
		return types.IntentNone, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildClassifyUserPrompt(text)))
	if err != nil {
		return types.IntentNone, goerr.Wrap(err, "failed to generate classification")
	}
	if len(resp.Texts) == 0 {
		return types.IntentNone, goerr.New("empty classification response")
	}

	var answer classifyResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &answer); err != nil {
		return types.IntentNone, goerr.Wrap(err, "failed to parse classification response",
			goerr.V("response", resp.Texts[0]))
	}

	label := types.IntentLabel(strings.ToLower(strings.TrimSpace(answer.Intent)))
	for _, c := range candidates {
		if label == c {
			return label, nil
		}
	}
	return types.IntentNone, nil
}

func classifySchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "IntentClassification",
		Description: "The intent label selected for the message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"intent": {
				Type:        gollem.TypeString,
				Description: "One label from the candidate list, or \"none\" if no candidate fits",
				Required:    true,
			},
		},
	}
}

func buildClassifySystemPrompt(candidates []types.IntentLabel) string {
	var sb strings.Builder

	sb.WriteString("You are an intent classifier for a message routing system.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Read the user message and pick exactly one intent label from the candidate list below.\n")
	sb.WriteString("2. Answer with the label string only, in the `intent` field.\n")
	sb.WriteString("3. If no candidate describes the message, answer \"none\".\n\n")
	sb.WriteString("## Candidate labels:\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s\n", c)
	}

	return sb.String()
}

func buildClassifyUserPrompt(text string) string {
	return "## Message:\n\n" + text + "\n"
}

type examplesResponse struct {
	Examples []string `json:"examples"`
}

// GenerateExamples asks the LLM for paraphrased variations of an intent's
// seed examples. Duplicates and blank strings in the answer are dropped.
func (s *Service) GenerateExamples(ctx context.Context, def model.IntentDefinition, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(examplesSchema()),
		gollem.WithSessionSystemPrompt(buildExamplesSystemPrompt(count)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildExamplesUserPrompt(def)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate examples", goerr.V("intent", def.Label))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty example generation response", goerr.V("intent", def.Label))
	}

	var answer examplesResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &answer); err != nil {
		return nil, goerr.Wrap(err, "failed to parse example generation response",
			goerr.V("intent", def.Label), goerr.V("response", resp.Texts[0]))
	}

	seen := make(map[string]struct{}, len(answer.Examples))
	examples := make([]string, 0, len(answer.Examples))
	for _, ex := range answer.Examples {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}
		key := model.NormalizeExampleText(ex)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		examples = append(examples, ex)
	}
	return examples, nil
}

func examplesSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ExampleGeneration",
		Description: "Paraphrased example utterances for an intent",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"examples": {
				Type:        gollem.TypeArray,
				Description: "Paraphrased example utterances",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
				Required: true,
			},
		},
	}
}

func buildExamplesSystemPrompt(count int) string {
	var sb strings.Builder

	sb.WriteString("You generate training utterances for an intent classifier.\n\n")
	sb.WriteString("## Instructions:\n\n")
	fmt.Fprintf(&sb, "1. Produce %d short user utterances that express the given intent.\n", count)
	sb.WriteString("2. Vary wording, tone, and phrasing; keep the same language as the seed examples.\n")
	sb.WriteString("3. Do not repeat the seed examples verbatim.\n")

	return sb.String()
}

func buildExamplesUserPrompt(def model.IntentDefinition) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Intent: %s\n\n", def.Label)
	fmt.Fprintf(&sb, "**Description:** %s\n\n", def.Description)
	sb.WriteString("## Seed examples:\n\n")
	for _, ex := range def.Examples {
		fmt.Fprintf(&sb, "- %s\n", ex)
	}

	return sb.String()
}
