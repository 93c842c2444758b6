package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel is a scripted model.ToolCallingChatModel.
//
// Each Generate call returns the next entry of Responses, or Err when set.
// When Respond is set it is used instead and receives the input messages.
type FakeChatModel struct {
	Responses []*schema.Message
	Err       error
	Respond   func(msgs []*schema.Message) (*schema.Message, error)

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

// Generate returns the next scripted response.
func (f *FakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]*schema.Message(nil), input...))
	if f.Respond != nil {
		return f.Respond(input)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Responses) == 0 {
		return nil, errors.New("fake model: no scripted response left")
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp, nil
}

// Stream is not supported.
func (f *FakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("fake model: streaming not supported")
}

// WithTools records the tools and returns the same model.
func (f *FakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools = tools
	return f, nil
}

// Calls returns the message lists passed to Generate.
func (f *FakeChatModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*schema.Message(nil), f.calls...)
}

// Tools returns the tools last bound with WithTools.
func (f *FakeChatModel) Tools() []*schema.ToolInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tools
}

// Text returns an assistant message with plain content.
func Text(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

// ToolCall returns an assistant message calling one function.
func ToolCall(name, arguments string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:   "call_" + name,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}})
}
