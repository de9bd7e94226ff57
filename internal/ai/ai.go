// Package ai implements §5's bounded-concurrency AI enrichment pass: for
// every Class, Method, and SqlStatement missing an ai_description, it
// sends the node's source text to an LlmClient and writes back the
// cleaned response. Unlike the reflective multi-provider dispatch this
// was ported from, there is exactly one client trait — no method-name
// probing, no provider fallback ladder.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/logging"
)

// LlmClient is the single trait every AI provider must satisfy. The
// default implementation is AnthropicClient; anything else (a local
// model, a test double) just needs to implement Complete.
type LlmClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnthropicClient is the default LlmClient, backed by Anthropic's Messages
// API.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

const defaultModelName = "claude-3-5-haiku-latest"
const maxResponseTokens = 1024

// NewAnthropicClient builds a client from an explicit API key, falling
// back to ANTHROPIC_API_KEY when apiKey is empty. model may be empty to
// use defaultModelName.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, &errs.ConfigError{Message: "ANTHROPIC_API_KEY not set and no api key provided"}
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = defaultModelName
	}
	return &AnthropicClient{client: c, model: anthropic.Model(model)}, nil
}

// Complete sends prompt as a single user turn and returns the assistant's
// text, concatenating every text content block in the reply. HTTP 429 is
// reported as a non-retryable ExternalServiceError (the run aborts);
// anything else, including a context deadline, is retryable (the caller
// moves on to the next node), per §7's ExternalServiceError taxonomy.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &errs.ExternalServiceError{Provider: "anthropic", Retryable: !isRateLimited(err), Wrapped: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func isRateLimited(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return strings.Contains(err.Error(), "429")
}

var thinkTagRE = regexp.MustCompile(`(?s)<think>.*?</think>`)
var fencedBlockRE = regexp.MustCompile("(?s)```(?:markdown)?\\s*\\n(.*?)```")

// CleanResponse strips any <think>...</think> scratchpad the model
// emitted, then prefers the contents of a fenced code block over the raw
// reply, matching the original analyzer's response post-processing.
func CleanResponse(raw string) string {
	stripped := thinkTagRE.ReplaceAllString(raw, "")
	if m := fencedBlockRE.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(stripped)
}

func classPrompt(name, source string) string {
	return fmt.Sprintf("Summarize what the Java class %s does in one or two sentences, based on this source:\n\n```java\n%s\n```", name, source)
}

func methodPrompt(class, method, source string) string {
	return fmt.Sprintf("Summarize what the method %s.%s does in one or two sentences, based on this source:\n\n```java\n%s\n```", class, method, source)
}

func sqlPrompt(id, content string) string {
	return fmt.Sprintf("Summarize what the SQL statement %q does in one sentence, based on this text:\n\n```sql\n%s\n```", id, content)
}

// Stats tallies one node type's enrichment pass.
type Stats struct {
	Processed, Success, Failed, Skipped int
}

func (s *Stats) record(ok bool) {
	s.Processed++
	if ok {
		s.Success++
	} else {
		s.Failed++
	}
}

// Result is the outcome of EnrichProject: per-node-type stats plus a
// combined total, mirroring the original enrichment service's returned
// dict shape.
type Result struct {
	Project            string
	ConcurrentRequests int
	Classes            Stats
	Methods            Stats
	SQLStatements      Stats
	Total              Stats
}

func (r *Result) addTotal(s Stats) {
	r.Total.Processed += s.Processed
	r.Total.Success += s.Success
	r.Total.Failed += s.Failed
	r.Total.Skipped += s.Skipped
}

// NodeType selects which node kinds EnrichProject processes.
type NodeType string

const (
	NodeAll    NodeType = "all"
	NodeClass  NodeType = "class"
	NodeMethod NodeType = "method"
	NodeSQL    NodeType = "sql"
)

// EnrichProject runs the bounded-concurrency enrichment pass described in
// §5: each node type is fanned out with at most concurrency requests in
// flight at once, via errgroup.SetLimit. A 429 from the client aborts the
// whole run immediately (the errgroup's context is canceled and every
// other in-flight request stops as soon as it next checks ctx.Err());
// any other per-item failure — including a timeout — is recorded as
// Failed and the pass continues with the remaining nodes.
func EnrichProject(ctx context.Context, store *graph.Store, client LlmClient, project string, nodeType NodeType, concurrency, limit int) (Result, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	result := Result{Project: project, ConcurrentRequests: concurrency}
	logger := logging.Get(logging.CategoryAI)

	if nodeType == NodeAll || nodeType == NodeClass {
		stats, err := enrichClasses(ctx, store, client, project, concurrency, limit, logger)
		result.Classes = stats
		result.addTotal(stats)
		if err != nil {
			return result, err
		}
	}
	if nodeType == NodeAll || nodeType == NodeMethod {
		stats, err := enrichMethods(ctx, store, client, project, concurrency, limit, logger)
		result.Methods = stats
		result.addTotal(stats)
		if err != nil {
			return result, err
		}
	}
	if nodeType == NodeAll || nodeType == NodeSQL {
		stats, err := enrichSQLStatements(ctx, store, client, project, concurrency, limit, logger)
		result.SQLStatements = stats
		result.addTotal(stats)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func enrichClasses(ctx context.Context, store *graph.Store, client LlmClient, project string, concurrency, limit int, logger *logging.Logger) (Stats, error) {
	candidates, err := store.ClassesNeedingAIDescription(project, limit)
	if err != nil {
		return Stats{}, err
	}
	if len(candidates) == 0 {
		logger.Info("no Class nodes need AI enrichment")
		return Stats{}, nil
	}
	logger.Info("enriching %d Class nodes with %d concurrent requests", len(candidates), concurrency)

	var stats Stats
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, c := range candidates {
		if egCtx.Err() != nil {
			break
		}
		c := c
		eg.Go(func() error {
			description, err := client.Complete(egCtx, classPrompt(c.Name, c.Source))
			ok := err == nil && description != ""
			if ok {
				if werr := store.UpdateClassAIDescription(c.Name, c.Project, CleanResponse(description)); werr != nil {
					ok = false
				}
			}
			mu.Lock()
			stats.record(ok)
			mu.Unlock()
			if !ok {
				logger.Warn("class enrichment failed for %s: %v", c.Name, err)
			}
			var svcErr *errs.ExternalServiceError
			if errors.As(err, &svcErr) && !svcErr.Retryable {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func enrichMethods(ctx context.Context, store *graph.Store, client LlmClient, project string, concurrency, limit int, logger *logging.Logger) (Stats, error) {
	candidates, err := store.MethodsNeedingAIDescription(project, limit)
	if err != nil {
		return Stats{}, err
	}
	if len(candidates) == 0 {
		logger.Info("no Method nodes need AI enrichment")
		return Stats{}, nil
	}
	logger.Info("enriching %d Method nodes with %d concurrent requests", len(candidates), concurrency)

	var stats Stats
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, m := range candidates {
		if egCtx.Err() != nil {
			break
		}
		m := m
		eg.Go(func() error {
			description, err := client.Complete(egCtx, methodPrompt(m.ClassName, m.Name, m.Source))
			ok := err == nil && description != ""
			if ok {
				if werr := store.UpdateMethodAIDescription(m.ClassName, m.Name, m.Project, CleanResponse(description)); werr != nil {
					ok = false
				}
			}
			mu.Lock()
			stats.record(ok)
			mu.Unlock()
			if !ok {
				logger.Warn("method enrichment failed for %s.%s: %v", m.ClassName, m.Name, err)
			}
			var svcErr *errs.ExternalServiceError
			if errors.As(err, &svcErr) && !svcErr.Retryable {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func enrichSQLStatements(ctx context.Context, store *graph.Store, client LlmClient, project string, concurrency, limit int, logger *logging.Logger) (Stats, error) {
	candidates, err := store.SQLStatementsNeedingAIDescription(project, limit)
	if err != nil {
		return Stats{}, err
	}
	if len(candidates) == 0 {
		logger.Info("no SqlStatement nodes need AI enrichment")
		return Stats{}, nil
	}
	logger.Info("enriching %d SqlStatement nodes with %d concurrent requests", len(candidates), concurrency)

	var stats Stats
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, st := range candidates {
		if egCtx.Err() != nil {
			break
		}
		st := st
		eg.Go(func() error {
			description, err := client.Complete(egCtx, sqlPrompt(st.ID, st.SQLContent))
			ok := err == nil && description != ""
			if ok {
				if werr := store.UpdateSQLAIDescription(st.ID, st.MapperName, st.Project, CleanResponse(description)); werr != nil {
					ok = false
				}
			}
			mu.Lock()
			stats.record(ok)
			mu.Unlock()
			if !ok {
				logger.Warn("sql enrichment failed for %s.%s: %v", st.MapperName, st.ID, err)
			}
			var svcErr *errs.ExternalServiceError
			if errors.As(err, &svcErr) && !svcErr.Retryable {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
