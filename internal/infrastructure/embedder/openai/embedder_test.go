package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbedderConfig
		wantErr  bool
		errMsg   string
		wantDims uint64
	}{
		{
			name:     "valid config",
			cfg:      config.EmbedderConfig{APIKey: "test-key"},
			wantDims: VectorSize,
		},
		{
			name:     "large model",
			cfg:      config.EmbedderConfig{APIKey: "test-key", Model: "text-embedding-3-large"},
			wantDims: 3072,
		},
		{
			name:     "reduced dimensions",
			cfg:      config.EmbedderConfig{APIKey: "test-key", Dimensions: 256},
			wantDims: 256,
		},
		{
			name:     "custom model with dimensions",
			cfg:      config.EmbedderConfig{APIKey: "test-key", Model: "nomic-embed-text", Dimensions: 768},
			wantDims: 768,
		},
		{
			name:    "custom model without dimensions",
			cfg:     config.EmbedderConfig{APIKey: "test-key", Model: "nomic-embed-text"},
			wantErr: true,
			errMsg:  "dimensions must be set",
		},
		{
			name:    "missing API key",
			cfg:     config.EmbedderConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := NewEmbedder(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, embedder)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantDims, embedder.Dimensions())
			}
		})
	}
}

func TestEmbedder_EmbedBatch_OrdersByIndex(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.3, 0.4]},
				{"object": "embedding", "index": 0, "embedding": [0.1, 0.2]}
			]
		}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "k", BaseURL: srv.URL, Dimensions: 2})
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
	assert.Equal(t, "text-embedding-3-small", got["model"])
	assert.EqualValues(t, 2, got["dimensions"])
}

func TestEmbedder_EmbedBatch_Empty(t *testing.T) {
	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "k"})
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
}
