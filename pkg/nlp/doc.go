// Package nlp provides chat clients for the language models behind text
// extraction.
//
// # Client Wrappers
//
//   - RetryClient: retry with exponential backoff on transient failures
//   - CircuitBreakerClient: stop calling a failing provider for a while
//
// # Usage
//
//	client, err := nlp.NewOpenAIClient(apiKey, nlp.Config{Model: "gpt-4o-mini"})
//	if err != nil {
//		return err
//	}
//	chat := nlp.NewCircuitBreakerClient(
//		nlp.NewRetryClient(client, nlp.DefaultRetryConfig()),
//		nlp.DefaultCircuitBreakerConfig(), "extraction", logger)
//
//	resp, err := chat.Chat(ctx, nlp.Prompt(system, text))
//
// # Error Handling
//
// RateLimitError and EmptyResponseError support errors.Is. Rate limits and
// 5xx responses are retried; other failures are returned at once.
package nlp
