// messages.go defines the request/response shapes exchanged over the
// JSON-over-TCP RPC layer between the searcher and the index worker:
// shard statistics and on-demand flush.
package rpc

// Document mirrors a document's identity across services.
type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	ContentHash string `json:"content_hash"`
	ContentSize int32  `json:"content_size"`
	ShardID     int32  `json:"shard_id"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	IndexedAt   int64  `json:"indexed_at,omitempty"`
}

// HealthCheckResponse reports a service's liveness.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// SearchRequest is the input to IndexService.Search.
type SearchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	Limit int32  `json:"limit"`
}

// SearchResponse is the output of IndexService.Search.
type SearchResponse struct {
	Query         string `json:"query"`
	TotalHits     int32  `json:"total_hits"`
	ShardsQueried int32  `json:"shards_queried"`
	Hits          []Hit  `json:"hits"`
	LatencyMs     int64  `json:"latency_ms"`
}

// Hit is one scored document in a SearchResponse.
type Hit struct {
	TextID string  `json:"text_id"`
	Score  float32 `json:"score"`
}

// StatsRequest optionally filters by shard; 0 means all shards.
type StatsRequest struct {
	ShardID int32 `json:"shard_id"`
}

// StatsResponse reports the block index's own physical layout
// statistics, rather than generic segment counts: how many distinct
// terms the directory holds, how many blocks the arena has handed
// out, and how full the hash directory is.
type StatsResponse struct {
	TotalDocs int64       `json:"total_docs"`
	Shards    []ShardStat `json:"shards,omitempty"`
}

// ShardStat holds one shard's block-index layout statistics.
type ShardStat struct {
	ShardID             int32   `json:"shard_id"`
	DocCount            int64   `json:"doc_count"`
	DocFreqTerms        int64   `json:"doc_freq_terms"`
	PhysicalBlocksUsed  int64   `json:"physical_blocks_used"`
	DirectoryLoadFactor float64 `json:"directory_load_factor"`
}

// FlushRequest triggers a flush; 0 means every shard.
type FlushRequest struct {
	ShardID int32 `json:"shard_id"`
}

// FlushResponse confirms a flush.
type FlushResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
