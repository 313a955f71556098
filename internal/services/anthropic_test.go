package services

import (
	"context"
	"errors"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessager struct {
	reply  *anthropic.Message
	err    error
	params anthropic.MessageNewParams
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.reply, f.err
}

func TestAnthropicGenerator(t *testing.T) {
	fake := &fakeMessager{reply: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "```json\n" + janeRoeJSON + "\n```"},
		},
	}}
	gen := newAnthropicGenerator(fake, "", 0)

	raw, err := gen.Generate(context.Background(), "Analyze this CV")
	require.NoError(t, err)
	assert.Equal(t, janeRoeJSON, raw)
	assert.Equal(t, anthropic.Model(gen.Model()), fake.params.Model)
	require.Len(t, fake.params.Messages, 1)

	mapping, err := NewResponseNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", mapping["name"])
}

func TestAnthropicGenerator_TransportError(t *testing.T) {
	gen := newAnthropicGenerator(&fakeMessager{err: errors.New("dial tcp: connection refused")}, "claude-test", 0)

	_, err := gen.Generate(context.Background(), "p")
	assert.Equal(t, KindEndpointUnavailable, KindOf(err))
	assert.True(t, IsRetryable(err))
}

// hangingMessager never answers; it returns only when the call context ends.
type hangingMessager struct{}

func (hangingMessager) New(ctx context.Context, _ anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnthropicGenerator_AppliesModelTimeout(t *testing.T) {
	gen := newAnthropicGenerator(hangingMessager{}, "claude-test", 50*time.Millisecond)

	start := time.Now()
	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, KindEndpointTimeout, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestAnthropicGenerator_CallerCancellation(t *testing.T) {
	gen := newAnthropicGenerator(hangingMessager{}, "claude-test", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := gen.Generate(ctx, "p")
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(" ", "", 0)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`  {"a":1} `))
}
