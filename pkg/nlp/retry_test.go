package nlp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink/pkg/nlp"
)

func fastRetry(n int) *nlp.RetryConfig {
	return &nlp.RetryConfig{
		MaxRetries:        n,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestRetryClient_RetriesTransientErrors(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		nlp.NewRateLimitError(),
		errors.New("503 service unavailable"),
	}}
	client := nlp.NewRetryClient(mock, fastRetry(3))

	resp, err := client.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, mock.calls)
}

func TestRetryClient_FailsFastOnPermanentError(t *testing.T) {
	mock := &scriptedClient{errs: []error{errors.New("invalid api key")}}
	client := nlp.NewRetryClient(mock, fastRetry(3))

	_, err := client.ChatWithStructuredOutput(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, mock.calls)
}

func TestRetryClient_ExhaustsRetries(t *testing.T) {
	mock := &scriptedClient{errs: []error{
		nlp.NewRateLimitError(), nlp.NewRateLimitError(), nlp.NewRateLimitError(),
	}}
	client := nlp.NewRetryClient(mock, fastRetry(2))

	_, err := client.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, nlp.ErrRateLimit)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Equal(t, 3, mock.calls)
}

func TestRetryClient_EmptyResponseIsRetried(t *testing.T) {
	mock := &scriptedClient{errs: []error{&nlp.EmptyResponseError{Model: "m"}}}
	client := nlp.NewRetryClient(mock, fastRetry(1))

	_, err := client.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.calls)
}

func TestRetryClient_ContextCancelledDuringBackoff(t *testing.T) {
	mock := &scriptedClient{errs: []error{nlp.NewRateLimitError()}}
	client := nlp.NewRetryClient(mock, &nlp.RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.calls)
}

func TestRetryClient_Close(t *testing.T) {
	mock := &scriptedClient{}
	require.NoError(t, nlp.NewRetryClient(mock, nil).Close())
	assert.True(t, mock.closed)
}
