package config

// ApplyDefaults sets default values for any zero fields in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AdminUser == "" {
		cfg.Server.AdminUser = "admin"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "data/stvbot.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "data/indices/vectors"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.RAG.ConfidenceThreshold == 0 {
		cfg.RAG.ConfidenceThreshold = 0.6
	}
	if cfg.RAG.AdvisorThreshold == 0 {
		cfg.RAG.AdvisorThreshold = 0.8
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 100
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 10
	}
	if cfg.Telegram.MatchPageSize == 0 {
		cfg.Telegram.MatchPageSize = 3
	}
	if cfg.Telegram.DraftTTLMinutes == 0 {
		cfg.Telegram.DraftTTLMinutes = 60
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.Twitter.APIBaseURL == "" {
		cfg.Twitter.APIBaseURL = "https://api.twitter.com"
	}
	if cfg.Roster.Path == "" {
		cfg.Roster.Path = "data/members.json"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
}
