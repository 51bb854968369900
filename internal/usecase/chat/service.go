// Package chat answers free-text questions about a candidate pool by
// ranking the pool first and grounding the completion prompt in the top
// matches.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/domain"
	"github.com/hireloop/matchrank/internal/retry"
)

const systemPrompt = "You are a recruiting assistant. Answer using only the candidate " +
	"documents provided. When you reference a candidate, cite their document id."

// maxContextDocs bounds how many ranked documents are inlined into the prompt.
const maxContextDocs = 5

// Answer is the outcome of one chat turn. Ranking is always populated;
// Content is empty when the completion provider failed terminally.
type Answer struct {
	Content string
	Ranking domain.Ranking
}

// Service coordinates ranking and completion.
type Service struct {
	ranker   Ranker
	docs     DocumentReader
	complete domain.Completer
	retries  *retry.Controller
	retryCfg retry.Config
	logger   *zap.Logger
}

// New creates a chat service.
func New(
	ranker Ranker,
	docs DocumentReader,
	complete domain.Completer,
	retries *retry.Controller,
	retryCfg retry.Config,
	logger *zap.Logger,
) *Service {
	if retryCfg.Retryable == nil {
		retryCfg.Retryable = domain.Retryable
	}
	return &Service{
		ranker:   ranker,
		docs:     docs,
		complete: complete,
		retries:  retries,
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// Ask ranks the scope against the question and asks the completion provider
// for a grounded answer. A dead completion provider degrades to returning
// the ranking alone with ErrCompletionUnavailable.
func (s *Service) Ask(ctx context.Context, scopeKey, question string) (Answer, error) {
	ranking, err := s.ranker.Rank(ctx, domain.Query{ScopeKey: scopeKey, RawText: question})
	if err != nil {
		return Answer{}, fmt.Errorf("rank candidates: %w", err)
	}

	messages := s.buildTranscript(scopeKey, question, ranking)

	content, err := retry.Do(ctx, s.retries, "chat:"+scopeKey, s.retryCfg,
		func(ctx context.Context) (string, error) {
			return s.complete.Complete(ctx, messages)
		})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Answer{}, ctxErr
		}
		s.logger.Warn("Completion failed terminally, returning ranking only",
			zap.String("scope_key", scopeKey),
			zap.Error(err),
		)
		return Answer{Ranking: ranking}, fmt.Errorf("%w: %w", domain.ErrCompletionUnavailable, err)
	}

	return Answer{Content: content, Ranking: ranking}, nil
}

// buildTranscript inlines the top-ranked documents into the system prompt.
func (s *Service) buildTranscript(scopeKey, question string, ranking domain.Ranking) []domain.Message {
	var b strings.Builder
	b.WriteString(systemPrompt)
	if ranking.Mode == domain.ModeLexical {
		b.WriteString("\nNote: semantic matching was unavailable; matches are keyword-based.")
	}

	limit := min(len(ranking.Results), maxContextDocs)
	for _, r := range ranking.Results[:limit] {
		text, err := s.lookupText(scopeKey, r.DocumentID)
		if err != nil {
			s.logger.Warn("Ranked document missing from store",
				zap.String("document_id", r.DocumentID),
				zap.Error(err),
			)
			continue
		}
		fmt.Fprintf(&b, "\n\n[%s] (match %.2f)\n%s", r.DocumentID, r.Score, text)
	}

	return []domain.Message{
		{Role: domain.RoleSystem, Content: b.String()},
		{Role: domain.RoleUser, Content: question},
	}
}

func (s *Service) lookupText(scopeKey, id string) (string, error) {
	docs, err := s.docs.List(scopeKey)
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if d.ID == id {
			return d.Text, nil
		}
	}
	return "", errors.New("document not in scope")
}
