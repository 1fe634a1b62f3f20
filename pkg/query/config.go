package query

import (
	"github.com/vedasage/sage/internal/util"
)

// Config tunes the retrieval pipeline. Zero values are replaced by defaults
// through Normalize; FromEnv reads overrides from the environment.
//
// The tier thresholds and path caps mirror the values the knowledge graph
// was built against; they are configuration, not a proven-optimal policy.
type Config struct {
	// Similarity search over chunks.
	SearchK              int
	ScoreThreshold       float64
	EffectiveSearchRatio int

	// Graph expansion.
	EntityLimit       int
	EmbeddingMinMatch float64
	EmbeddingMaxMatch float64
	PathLimitMidBand  int
	PathLimitHighBand int

	// Context compression.
	SubChunkTokens     int
	SubChunkOverlap    int
	SimilarityFloor    float64
	EmbedConcurrency   int

	// External call retries.
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		SearchK:              5,
		ScoreThreshold:       0.5,
		EffectiveSearchRatio: 2,
		EntityLimit:          40,
		EmbeddingMinMatch:    0.3,
		EmbeddingMaxMatch:    0.9,
		PathLimitMidBand:     20,
		PathLimitHighBand:    40,
		SubChunkTokens:       5000,
		SubChunkOverlap:      100,
		SimilarityFloor:      0.10,
		EmbedConcurrency:     4,
		MaxRetries:           2,
	}
}

// FromEnv builds a Config from environment variables, falling back to the
// defaults above for anything unset or unparsable.
func FromEnv() Config {
	d := DefaultConfig()
	return Config{
		SearchK:              util.GetEnvInt("SEARCH_K", d.SearchK),
		ScoreThreshold:       util.GetEnvNumeric("SCORE_THRESHOLD", d.ScoreThreshold),
		EffectiveSearchRatio: util.GetEnvInt("EFFECTIVE_SEARCH_RATIO", d.EffectiveSearchRatio),
		EntityLimit:          util.GetEnvInt("ENTITY_LIMIT", d.EntityLimit),
		EmbeddingMinMatch:    util.GetEnvNumeric("EMBEDDING_MIN_MATCH", d.EmbeddingMinMatch),
		EmbeddingMaxMatch:    util.GetEnvNumeric("EMBEDDING_MAX_MATCH", d.EmbeddingMaxMatch),
		PathLimitMidBand:     util.GetEnvInt("PATH_LIMIT_MID_BAND", d.PathLimitMidBand),
		PathLimitHighBand:    util.GetEnvInt("PATH_LIMIT_HIGH_BAND", d.PathLimitHighBand),
		SubChunkTokens:       util.GetEnvInt("SUBCHUNK_TOKENS", d.SubChunkTokens),
		SubChunkOverlap:      util.GetEnvInt("SUBCHUNK_OVERLAP", d.SubChunkOverlap),
		SimilarityFloor:      util.GetEnvNumeric("SIMILARITY_FLOOR", d.SimilarityFloor),
		EmbedConcurrency:     util.GetEnvInt("EMBED_CONCURRENCY", d.EmbedConcurrency),
		MaxRetries:           util.GetEnvInt("AI_MAX_RETRIES", d.MaxRetries),
	}
}

// Normalize replaces non-positive or out-of-range values with defaults so a
// partially filled Config stays usable.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.SearchK <= 0 {
		c.SearchK = d.SearchK
	}
	if c.ScoreThreshold <= 0 || c.ScoreThreshold > 1 {
		c.ScoreThreshold = d.ScoreThreshold
	}
	if c.EffectiveSearchRatio < 1 {
		c.EffectiveSearchRatio = d.EffectiveSearchRatio
	}
	if c.EntityLimit <= 0 {
		c.EntityLimit = d.EntityLimit
	}
	if c.EmbeddingMinMatch <= 0 {
		c.EmbeddingMinMatch = d.EmbeddingMinMatch
	}
	if c.EmbeddingMaxMatch <= 0 {
		c.EmbeddingMaxMatch = d.EmbeddingMaxMatch
	}
	if c.PathLimitMidBand <= 0 {
		c.PathLimitMidBand = d.PathLimitMidBand
	}
	if c.PathLimitHighBand <= 0 {
		c.PathLimitHighBand = d.PathLimitHighBand
	}
	if c.SubChunkTokens <= 0 {
		c.SubChunkTokens = d.SubChunkTokens
	}
	if c.SubChunkOverlap < 0 {
		c.SubChunkOverlap = d.SubChunkOverlap
	}
	if c.SimilarityFloor <= 0 {
		c.SimilarityFloor = d.SimilarityFloor
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = d.EmbedConcurrency
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	return c
}
