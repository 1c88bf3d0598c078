package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many times the model may chain tool calls per question.
const maxToolRounds = 5

const systemPrompt = `Today is %s. You are the assistant of a small retail counter.

RULES:
1. UPDATE: If the owner asks to change a price by item NAME, do NOT ask for the ID.
   Call 'check_inventory' to find the ID, then call 'update_stock_price'.
2. READ: For PRICE, STOCK or DETAILS of an item, call 'check_inventory' and answer from it.
3. SALES: For sales, revenue or bill counts, call 'get_sales_report'. Amounts are in rupees.`

type Agent struct {
	client *genai.Client
	model  string
	tools  *Tools
	loc    *time.Location
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewAgent(ctx context.Context, apiKey, model string, tools *Tools, logger logrus.FieldLogger) (*Agent, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Agent{
		client: client,
		model:  model,
		tools:  tools,
		loc:    tools.loc,
		now:    time.Now,
		log:    logger,
	}, nil
}

func (a *Agent) Close() error {
	return a.client.Close()
}

// Ask runs one question to completion, answering every tool call along the way.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.Tools = a.tools.Declarations()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(systemPrompt, a.now().In(a.loc).Format("2006-01-02")))},
	}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return replyText(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.WithField("tool", call.Name).Debug("assistant tool call")
			parts = append(parts, a.tools.Execute(ctx, call))
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}
	return replyText(resp), nil
}

func responseParts(resp *genai.GenerateContentResponse) []genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range responseParts(resp) {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func replyText(resp *genai.GenerateContentResponse) string {
	for _, part := range responseParts(resp) {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
