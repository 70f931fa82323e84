// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding, LLM, reranker, vector store
// and document source providers the analysis pipeline consumes.
package driven
