package vectordb

import "time"

// Config controls the vector store client.
type Config struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Collection string        `mapstructure:"collection"`
	TopK       int           `mapstructure:"top_k"`
	Threshold  float64       `mapstructure:"threshold"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Point is a stored vector with its payload.
type Point struct {
	ID      interface{}            `json:"id,omitempty"`
	Score   float64                `json:"score,omitempty"`
	Vector  []float32              `json:"vector,omitempty"`
	Payload map[string]interface{} `json:"payload"`
}

// UpsertResponse captures the basic upsert reply.
type UpsertResponse struct {
	Status string  `json:"status"`
	Time   float64 `json:"time"`
}
