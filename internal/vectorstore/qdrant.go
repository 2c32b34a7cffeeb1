package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField stores the caller-supplied reference when the original
// point ID is not itself a UUID, since Qdrant only accepts UUIDs or
// positive integers as point IDs.
const payloadIDField = "_original_id"

// payloadTextField is the payload key that holds the chunk text. Caller
// metadata is stored under its own keys beside it, unprefixed, so a
// metadata key equal to this one would overwrite the text.
const payloadTextField = "_text"

type qdrantStore struct {
	client  *qdrant.Client
	metric  string // cosine|l2|euclidean|ip|dot|manhattan
	def     string
	mu      sync.RWMutex
	collDim map[string]int
	collDsc map[string]string
}

// NewQdrant dials a Qdrant gRPC endpoint (default port 6334) and returns a
// Store. dsn may carry an api_key query parameter, e.g.
// "http://localhost:6334?api_key=...". defaultCollection is always unioned
// into routing results by the collection router.
func NewQdrant(dsn string, defaultCollection string, metric string) (Store, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &qdrantStore{
		client:  client,
		metric:  strings.ToLower(strings.TrimSpace(metric)),
		def:     defaultCollection,
		collDim: make(map[string]int),
		collDsc: make(map[string]string),
	}, nil
}

func (q *qdrantStore) DefaultCollection() string { return q.def }

func (q *qdrantStore) distance() qdrant.Distance {
	switch q.metric {
	case "l2", "euclidean":
		return qdrant.Distance_Euclid
	case "ip", "dot":
		return qdrant.Distance_Dot
	case "manhattan":
		return qdrant.Distance_Manhattan
	default:
		return qdrant.Distance_Cosine
	}
}

func (q *qdrantStore) InitCollection(ctx context.Context, collection string, dimension int, description string) error {
	if collection == "" {
		return fmt.Errorf("collection name is required")
	}
	if dimension <= 0 {
		return fmt.Errorf("qdrant requires dimension > 0")
	}
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: q.distance(),
			}),
		}); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	q.mu.Lock()
	q.collDim[collection] = dimension
	q.collDsc[collection] = description
	q.mu.Unlock()
	return nil
}

// ListCollections returns collections this process has initialized via
// InitCollection that match dim (0 = no filter). Qdrant itself has no
// notion of a human description, so descriptions are tracked locally.
func (q *qdrantStore) ListCollections(_ context.Context, dim int) ([]CollectionInfo, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]CollectionInfo, 0, len(q.collDim))
	for name, d := range q.collDim {
		if dim != 0 && d != dim {
			continue
		}
		out = append(out, CollectionInfo{Name: name, Description: q.collDsc[name], Dimension: d})
	}
	return out, nil
}

func pointID(id string) (*qdrant.PointId, bool) {
	if _, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(id), true
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()), false
}

func (q *qdrantStore) Insert(ctx context.Context, collection string, hit Hit) error {
	pid, isUUID := pointID(hit.Reference)
	payload := make(map[string]any, len(hit.Metadata)+2)
	for k, v := range hit.Metadata {
		payload[k] = v
	}
	payload[payloadTextField] = hit.Text
	if !isUUID {
		payload[payloadIDField] = hit.Reference
	}
	vec := make([]float32, len(hit.Embedding))
	copy(vec, hit.Embedding)
	points := []*qdrant.PointStruct{{
		Id:      pid,
		Vectors: qdrant.NewVectorsDense(vec),
		Payload: qdrant.NewValueMap(payload),
	}}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: collection, Points: points})
	return err
}

func (q *qdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	limit := uint64(topK)
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search %s: %w", collection, err)
	}
	out := make([]Hit, 0, len(results))
	for _, r := range results {
		h := Hit{Score: float64(r.Score), Metadata: map[string]any{}}
		if r.Payload != nil {
			for k, v := range r.Payload {
				switch k {
				case payloadTextField:
					h.Text = v.GetStringValue()
				case payloadIDField:
					h.Reference = v.GetStringValue()
				default:
					h.Metadata[k] = valueToAny(v)
				}
			}
		}
		if h.Reference == "" {
			h.Reference = r.Id.GetUuid()
		}
		if dv := r.GetVectors().GetVector().GetData(); len(dv) > 0 {
			h.Embedding = append([]float32(nil), dv...)
		}
		out = append(out, h)
	}
	return out, nil
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.GetStringValue()
	}
}

// Clear drops and recreates collection, discarding every point but keeping
// its dimension and description as tracked by InitCollection.
func (q *qdrantStore) Clear(ctx context.Context, collection string) error {
	q.mu.RLock()
	dim := q.collDim[collection]
	desc := q.collDsc[collection]
	q.mu.RUnlock()
	if err := q.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	if dim <= 0 {
		return nil
	}
	return q.InitCollection(ctx, collection, dim, desc)
}

// Close releases the underlying gRPC connection.
func (q *qdrantStore) Close() error { return q.client.Close() }
