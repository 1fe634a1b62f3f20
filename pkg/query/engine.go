package query

import (
	"context"

	"github.com/vedasage/sage/pkg/ai"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/store"
)

// NoDocumentsMessage is returned verbatim when retrieval finds nothing
// relevant. An empty result set is a valid outcome, not a failure.
const NoDocumentsMessage = "I couldn't find any relevant documents to answer your question."

// Engine wires the full question answering pipeline: question transform,
// hybrid retrieval, context compression, context assembly and answer
// generation.
type Engine struct {
	AI     ai.SageAIClient
	Store  store.GraphStore
	Config Config
	Model  string
}

func NewEngine(aiClient ai.SageAIClient, graphStore store.GraphStore, config Config, model string) *Engine {
	return &Engine{
		AI:     aiClient,
		Store:  graphStore,
		Config: config.Normalize(),
		Model:  model,
	}
}

// Ask answers the latest user question in messages against the knowledge
// graph. The last message must be the current question; earlier messages are
// conversation history used for question rewriting and answer generation.
func (e *Engine) Ask(ctx context.Context, messages []ai.ChatMessage, documentNames []string) (Response, error) {
	transform, err := TransformQuestion(ctx, e.AI, messages, ai.WithModel(e.Model))
	if err != nil {
		return Response{}, wrapErr(KindRetrieval, err)
	}
	if transform.Rewritten {
		logger.Info("Transformed question", "query", transform.SearchQuery)
	}

	retriever := NewRetriever(e.AI, e.Store, e.Config)
	chunks, embedding, err := retriever.Retrieve(ctx, transform.SearchQuery, documentNames)
	if err != nil {
		return Response{}, err
	}
	if len(chunks) == 0 {
		logger.Info("no documents matched the query", "query", transform.SearchQuery)
		return Response{
			Message:      NoDocumentsMessage,
			Sources:      []string{},
			ChunkDetails: []ChunkDetail{},
			Entities:     EntityDetails{EntityIDs: []string{}, RelationshipIDs: []string{}},
			Communities:  []store.CommunityDetail{},
			Model:        e.Model,
		}, nil
	}

	compressor := NewCompressor(e.AI, e.Config)
	compressed, err := compressor.Compress(ctx, chunks, embedding)
	if err != nil {
		return Response{}, err
	}

	assembled := FormatDocuments(compressed, e.Model)

	question := messages[len(messages)-1].Message
	history := messages[:len(messages)-1]

	answer, totalTokens, err := GenerateAnswer(ctx, e.AI, e.Model, assembled.Text, history, question)
	if err != nil {
		return Response{}, err
	}

	chunkDetails := SourcesAndChunks(assembled.Sources, compressed)

	return Response{
		Message:      answer,
		Sources:      assembled.Sources,
		ChunkDetails: chunkDetails,
		Entities:     assembled.Entities,
		Communities:  assembled.Communities,
		TotalTokens:  totalTokens,
		Model:        e.Model,
	}, nil
}
