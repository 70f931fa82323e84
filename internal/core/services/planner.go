package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// RetrievalPlanner executes the retrieval plan for one field query:
// query expansion, one or more retrieval rounds against the namespace,
// and an optional reranking pass over the merged candidate pool.
type RetrievalPlanner struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	reranker driven.RerankerService
	cfg      domain.Config
}

// NewRetrievalPlanner creates a retrieval planner.
// The llm and reranker services are optional (can be nil); expansion and
// reranking degrade gracefully without them.
func NewRetrievalPlanner(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	reranker driven.RerankerService,
	cfg domain.Config,
) *RetrievalPlanner {
	return &RetrievalPlanner{
		store:    store,
		embedder: embedder,
		llm:      llm,
		reranker: reranker,
		cfg:      cfg,
	}
}

// Retrieve runs the full plan for q against the namespace and returns
// results ordered descending by relevance, at most RerankFinalK of them.
// An empty result is a valid not-found outcome, never an error.
func (p *RetrievalPlanner) Retrieve(ctx context.Context, ns domain.Namespace, q domain.Query) ([]domain.RerankedResult, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("retrieve %s: %w", q.Field, domain.ErrEmbeddingUnavailable)
	}

	variants := p.expand(ctx, q)

	maxRounds := 1
	if p.cfg.EnableMultiRoundRetrieval {
		maxRounds = p.cfg.MaxRetrievalRounds
	}

	// Round 1 uses the original query; each later round escalates to the
	// next alternate phrasing produced by expansion, so no round repeats
	// a query already searched.
	merged := make(map[string]domain.RetrievalHit)

	for round := 1; round <= maxRounds; round++ {
		active := variants[round-1 : round]
		logger.Debug("Field %s: retrieval round %d/%d, query %q", q.Field, round, maxRounds, active[0])

		if err := p.runRound(ctx, ns, active, merged); err != nil {
			return nil, fmt.Errorf("retrieve %s: %w", q.Field, err)
		}
		if p.covered(merged) {
			logger.Debug("Field %s: coverage reached after round %d", q.Field, round)
			break
		}
		if round >= len(variants) {
			// Every phrasing has been searched.
			break
		}
	}

	if len(merged) == 0 {
		logger.Debug("Field %s: no hits above threshold", q.Field)
		return []domain.RerankedResult{}, nil
	}

	hits := make([]domain.RetrievalHit, 0, len(merged))
	for _, hit := range merged {
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	return p.rerank(ctx, q, hits)
}

// runRound issues one similarity search per active variant and merges
// hits into the pool, deduplicating by chunk ID and keeping the maximum
// score per chunk.
func (p *RetrievalPlanner) runRound(ctx context.Context, ns domain.Namespace, variants []string, merged map[string]domain.RetrievalHit) error {
	var vectors [][]float32
	err := withRetry(ctx, p.cfg.PerCallMaxRetries, "embed query variants", func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedBatch(ctx, variants)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("embed variants: %w", err)
	}
	if len(vectors) != len(variants) {
		return fmt.Errorf("embed variants: got %d vectors for %d variants", len(vectors), len(variants))
	}

	for i, vector := range vectors {
		var hits []driven.VectorHit
		err := withRetry(ctx, p.cfg.PerCallMaxRetries, "similarity search", func(ctx context.Context) error {
			var queryErr error
			hits, queryErr = p.store.Query(ctx, ns.ID, vector, p.cfg.RetrievalK)
			return queryErr
		})
		if err != nil {
			return fmt.Errorf("query variant %d: %w", i, err)
		}

		for _, hit := range hits {
			if hit.Similarity < p.cfg.SimilarityThreshold {
				continue
			}
			existing, ok := merged[hit.Chunk.ID]
			if ok && existing.Score >= hit.Similarity {
				continue
			}
			merged[hit.Chunk.ID] = domain.RetrievalHit{
				ChunkID:     hit.Chunk.ID,
				NamespaceID: hit.Chunk.NamespaceID,
				Content:     hit.Chunk.Content,
				Span:        hit.Chunk.Span,
				Score:       hit.Similarity,
			}
		}
	}

	return nil
}

// covered reports whether the merged pool plausibly answers the query:
// at least one hit at or above the coverage threshold.
func (p *RetrievalPlanner) covered(merged map[string]domain.RetrievalHit) bool {
	for _, hit := range merged {
		if hit.Score >= p.cfg.CoverageThreshold {
			return true
		}
	}
	return false
}

// expansionSchema is the JSON shape requested from the LLM.
type expansionSchema struct {
	Variants []string `json:"variants"`
}

// expansionPrompt asks for paraphrases covering different phrasings of
// the same information need. Mirrors the tender-document phrasing the
// extraction prompts use.
const expansionPrompt = `你是一个专业的招投标文件分析专家。请根据原始查询生成%d个相关的查询变体，以便更全面地检索相关信息。

原始查询: %s

要求：
1. 覆盖原始查询的不同表达方式，包含同义词和招投标专业术语
2. 每个查询简洁明确
3. 只返回JSON，格式: {"variants": ["查询1", "查询2"]}`

// expand generates up to MaxExpansions query variants. Variant 0 is
// always the original query; expansion failures degrade gracefully to
// the original query alone and are never fatal.
func (p *RetrievalPlanner) expand(ctx context.Context, q domain.Query) []string {
	original := strings.TrimSpace(q.Text)
	variants := []string{original}

	if !p.cfg.EnableQueryExpansion || p.llm == nil || p.cfg.MaxExpansions <= 1 {
		return variants
	}

	prompt := fmt.Sprintf(expansionPrompt, p.cfg.MaxExpansions-1, original)

	var response string
	err := withRetry(ctx, p.cfg.PerCallMaxRetries, "expand query", func(ctx context.Context) error {
		var genErr error
		response, genErr = p.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   512,
			Temperature: 0.3,
		})
		return genErr
	})
	if err != nil {
		logger.Warn("Query expansion failed for %s: %v (using original query)", q.Field, err)
		return variants
	}

	var parsed expansionSchema
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		logger.Warn("Query expansion response unparseable for %s: %v", q.Field, err)
		return variants
	}

	seen := map[string]bool{original: true}
	for _, v := range parsed.Variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
		if len(variants) == p.cfg.MaxExpansions {
			break
		}
	}

	logger.Debug("Field %s: expanded to %d variant(s)", q.Field, len(variants))
	return variants
}

// rerank passes the candidate pool through the reranker and keeps the
// top RerankFinalK. When reranking is disabled or unavailable it falls
// back to the similarity-ranked order truncated to RerankFinalK.
func (p *RetrievalPlanner) rerank(ctx context.Context, q domain.Query, hits []domain.RetrievalHit) ([]domain.RerankedResult, error) {
	if !p.cfg.EnableReranking || p.reranker == nil {
		return truncateBySimilarity(hits, p.cfg.RerankFinalK), nil
	}

	pool := hits
	if len(pool) > p.cfg.RerankTopK {
		pool = pool[:p.cfg.RerankTopK]
	}
	candidates := make([]string, len(pool))
	for i := range pool {
		candidates[i] = pool[i].Content
	}

	var reranked []driven.RerankHit
	err := withRetry(ctx, p.cfg.PerCallMaxRetries, "rerank", func(ctx context.Context) error {
		var rerankErr error
		reranked, rerankErr = p.reranker.Rerank(ctx, q.Text, candidates, p.cfg.RerankFinalK)
		return rerankErr
	})
	if err != nil {
		logger.Warn("Reranking failed for %s: %v (falling back to similarity order)", q.Field, err)
		return truncateBySimilarity(hits, p.cfg.RerankFinalK), nil
	}

	results := make([]domain.RerankedResult, 0, len(reranked))
	for _, rh := range reranked {
		if rh.Index < 0 || rh.Index >= len(pool) {
			continue
		}
		results = append(results, domain.RerankedResult{
			RetrievalHit: pool[rh.Index],
			RerankScore:  rh.Score,
		})
		if len(results) == p.cfg.RerankFinalK {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RerankScore > results[j].RerankScore
	})
	return results, nil
}

// truncateBySimilarity is the no-reranker fallback: similarity order,
// rerank score mirroring the similarity score.
func truncateBySimilarity(hits []domain.RetrievalHit, k int) []domain.RerankedResult {
	if len(hits) > k {
		hits = hits[:k]
	}
	results := make([]domain.RerankedResult, len(hits))
	for i, hit := range hits {
		results[i] = domain.RerankedResult{RetrievalHit: hit, RerankScore: hit.Score}
	}
	return results
}
