// Package qdrant provides the search index implementation using Qdrant.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"unicode/utf8"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/infrastructure/config"
)

// snippetLength caps the text returned with each search hit, in runes.
const snippetLength = 240

// Payload keys stored on every point.
const (
	keyEntityID = "entity_id"
	keyKind     = "kind"
	keyRevID    = "rev_id"
	keyLanguage = "language"
	keyTitle    = "title"
	keyText     = "text"
)

// Repository implements ports.SearchIndex and ports.CollectionManager using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository for the configured collection.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.UseTLS {
		opts[0] = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection and its entity_id index if they don't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	_, err = r.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: r.collection,
		FieldName:      keyEntityID,
		FieldType:      pb.PtrOf(pb.FieldType_FieldTypeKeyword),
	})
	if err != nil {
		return fmt.Errorf("creating entity index: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and every point in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Upsert stores search documents, replacing points with the same id.
func (r *Repository) Upsert(ctx context.Context, docs []entities.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]*pb.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, docToPoint(doc))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// DeleteByEntity removes every point of an entity.
func (r *Repository) DeleteByEntity(ctx context.Context, entityID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: entityFilter(entityID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points by entity: %w", err)
	}

	return nil
}

// Search performs a semantic search and returns the closest documents.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.SearchHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]entities.SearchHit, 0, len(resp.Result))
	for _, point := range resp.Result {
		hits = append(hits, scoredPointToHit(point))
	}
	return hits, nil
}

func entityFilter(entityID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: keyEntityID,
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{
								Keyword: entityID,
							},
						},
					},
				},
			},
		},
	}
}

func docToPoint(doc entities.SearchDocument) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: doc.PointID,
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: doc.Vector,
				},
			},
		},
		Payload: map[string]*pb.Value{
			keyEntityID: stringValue(doc.EntityID),
			keyKind:     stringValue(string(doc.Kind)),
			keyRevID:    stringValue(doc.RevID),
			keyLanguage: stringValue(string(doc.Language)),
			keyTitle:    stringValue(doc.Title),
			keyText:     stringValue(doc.Text),
		},
	}
}

func scoredPointToHit(point *pb.ScoredPoint) entities.SearchHit {
	payload := point.Payload
	return entities.SearchHit{
		EntityID: getStringValue(payload, keyEntityID),
		Kind:     entities.Kind(getStringValue(payload, keyKind)),
		RevID:    getStringValue(payload, keyRevID),
		Language: entities.LanguageCode(getStringValue(payload, keyLanguage)),
		Title:    getStringValue(payload, keyTitle),
		Snippet:  snippet(getStringValue(payload, keyText)),
		Score:    point.Score,
	}
}

// snippet collapses whitespace and truncates text to snippetLength runes.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:snippetLength])) + "…"
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
