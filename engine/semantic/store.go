package semantic

import (
	"context"
	"fmt"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// pointsAPI is the subset of the Qdrant points service this store calls.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsAPI is the subset of the Qdrant collections service this store
// calls.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// VectorStore is the sole owner of all Qdrant operations.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients creates a VectorStore with explicit service clients. Used
// by tests.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *VectorStore {
	return &VectorStore{
		points:      points,
		collections: collections,
		collection:  collection,
	}
}

// Close closes the underlying gRPC connection, if one was dialed.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// EnsureCollection creates the multi-vector asset collection if it doesn't
// exist: cosine-distance spaces for descriptions and categories.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	d := uint64(dims)
	params := func() *pb.VectorParams {
		return &pb.VectorParams{Size: d, Distance: pb.Distance_Cosine}
	}
	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_ParamsMap{
				ParamsMap: &pb.VectorParamsMap{
					Map: map[string]*pb.VectorParams{
						VectorDescription: params(),
						VectorCategory:    params(),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	return nil
}

// DeleteCollection deletes the collection.
func (v *VectorStore) DeleteCollection(ctx context.Context) error {
	_, err := v.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: v.collection,
	})
	if err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", v.collection, err)
	}
	return nil
}

// Upsert stores multi-vector asset points into Qdrant. Called by
// engine/catalog during ingestion.
func (v *VectorStore) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		named := make(map[string]*pb.Vector, len(r.Vectors))
		for space, data := range r.Vectors {
			named[space] = &pb.Vector{Data: data}
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vectors{
					Vectors: &pb.NamedVectors{Vectors: named},
				},
			},
			Payload: toPayload(r.Payload),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// DeleteByDataset removes all points belonging to a dataset. Used for
// re-ingestion of a single source library.
func (v *VectorStore) DeleteByDataset(ctx context.Context, dataset string) error {
	wait := true
	_, err := v.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{
						keywordMatch("dataset", dataset),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete by dataset %s: %w", dataset, err)
	}
	return nil
}

// SearchDescription performs k-NN similarity search against the description
// vector space. This is the retrieval path's only query. An empty result is
// not an error: callers treat "no candidate" as a recoverable per-object gap.
func (v *VectorStore) SearchDescription(ctx context.Context, embedding []float32, topK int, filters map[string]any) ([]SearchResult, error) {
	return v.search(ctx, VectorDescription, embedding, topK, filters)
}

// SearchCategory queries the category vector space. Stored for every asset
// but not used by the synthesis pipeline; exposed for catalog tooling.
func (v *VectorStore) SearchCategory(ctx context.Context, embedding []float32, topK int, filters map[string]any) ([]SearchResult, error) {
	return v.search(ctx, VectorCategory, embedding, topK, filters)
}

func (v *VectorStore) search(ctx context.Context, space string, embedding []float32, topK int, filters map[string]any) ([]SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         embedding,
		VectorName:     &space,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	if len(filters) > 0 {
		must := make([]*pb.Condition, 0, len(filters))
		for k, val := range filters {
			switch tv := val.(type) {
			case bool:
				must = append(must, boolMatch(k, tv))
			case string:
				must = append(must, keywordMatch(k, tv))
			default:
				must = append(must, keywordMatch(k, fmt.Sprint(tv)))
			}
		}
		req.Filter = &pb.Filter{Must: must}
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search %s: %w", space, err)
	}

	results := make([]SearchResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		results[i] = SearchResult{
			ID:    r.GetId().GetUuid(),
			Score: r.GetScore(),
			Asset: assetFromPayload(r.GetPayload()),
		}
	}
	return results, nil
}

// assetFromPayload decodes the stored asset payload schema back into a
// domain record.
func assetFromPayload(payload map[string]*pb.Value) domain.AssetRecord {
	a := domain.AssetRecord{Scale: [3]float64{1, 1, 1}}
	for k, val := range payload {
		switch k {
		case "asset_id":
			a.AssetID = val.GetStringValue()
		case "description":
			a.Description = val.GetStringValue()
		case "category":
			a.Category = val.GetStringValue()
		case "label":
			a.Label = val.GetStringValue()
		case "path":
			a.Path = val.GetStringValue()
		case "dataset":
			a.Dataset = val.GetStringValue()
		case "frontview":
			a.Frontview = int(val.GetIntegerValue())
		case "onFloor":
			a.OnFloor = val.GetBoolValue()
		case "onWall":
			a.OnWall = val.GetBoolValue()
		case "onCeiling":
			a.OnCeiling = val.GetBoolValue()
		case "onObject":
			a.OnObject = val.GetBoolValue()
		case "scale":
			if f := floatTriple(val); f != nil {
				a.Scale = *f
			}
		case "boundingbox":
			if f := floatTriple(val); f != nil {
				a.Width, a.Length, a.Height = f[0], f[1], f[2]
			}
		}
	}
	return a
}

// floatTriple extracts a 3-element float list value, or nil.
func floatTriple(val *pb.Value) *[3]float64 {
	list := val.GetListValue().GetValues()
	if len(list) != 3 {
		return nil
	}
	var out [3]float64
	for i, v := range list {
		switch kind := v.GetKind().(type) {
		case *pb.Value_DoubleValue:
			out[i] = kind.DoubleValue
		case *pb.Value_IntegerValue:
			out[i] = float64(kind.IntegerValue)
		default:
			return nil
		}
	}
	return &out
}

// toPayload converts a generic payload map into Qdrant values.
func toPayload(payload map[string]any) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(payload))
	for k, val := range payload {
		out[k] = toValue(val)
	}
	return out
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	case []float64:
		vals := make([]*pb.Value, len(tv))
		for i, f := range tv {
			vals[i] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	case [3]float64:
		return toValue(tv[:])
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func keywordMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func boolMatch(key string, value bool) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Boolean{Boolean: value},
				},
			},
		},
	}
}
