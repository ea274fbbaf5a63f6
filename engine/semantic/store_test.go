package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- Mocks ---

type mockPoints struct {
	upsertReq  *pb.UpsertPoints
	upsertResp *pb.PointsOperationResponse
	upsertErr  error
	deleteReq  *pb.DeletePoints
	deleteResp *pb.PointsOperationResponse
	deleteErr  error
	searchReq  *pb.SearchPoints
	searchResp *pb.SearchResponse
	searchErr  error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upsertReq = in
	return m.upsertResp, m.upsertErr
}
func (m *mockPoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.deleteReq = in
	return m.deleteResp, m.deleteErr
}
func (m *mockPoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.searchReq = in
	return m.searchResp, m.searchErr
}

type mockCollections struct {
	createReq  *pb.CreateCollection
	listResp   *pb.ListCollectionsResponse
	listErr    error
	createResp *pb.CollectionOperationResponse
	createErr  error
	deleteResp *pb.CollectionOperationResponse
	deleteErr  error
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	return m.listResp, m.listErr
}
func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.createReq = in
	return m.createResp, m.createErr
}
func (m *mockCollections) Delete(_ context.Context, _ *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	return m.deleteResp, m.deleteErr
}

// --- Tests ---

func TestNewWithClients(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{}, "test")
	if vs == nil {
		t.Fatal("expected non-nil")
	}
	if err := vs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEnsureCollection_AlreadyExists(t *testing.T) {
	cols := &mockCollections{
		listResp: &pb.ListCollectionsResponse{
			Collections: []*pb.CollectionDescription{{Name: "test"}},
		},
	}
	vs := NewWithClients(&mockPoints{}, cols, "test")
	if err := vs.EnsureCollection(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.createReq != nil {
		t.Fatal("existing collection must not be recreated")
	}
}

func TestEnsureCollection_CreatesBothSpaces(t *testing.T) {
	cols := &mockCollections{
		listResp:   &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{{Name: "other"}}},
		createResp: &pb.CollectionOperationResponse{Result: true},
	}
	vs := NewWithClients(&mockPoints{}, cols, "test")
	if err := vs.EnsureCollection(context.Background(), EmbeddingDims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.createReq.CollectionName != "test" {
		t.Fatalf("collection %q", cols.createReq.CollectionName)
	}
	spaces := cols.createReq.GetVectorsConfig().GetParamsMap().GetMap()
	if len(spaces) != 2 {
		t.Fatalf("expected 2 named spaces, got %d", len(spaces))
	}
	for _, name := range []string{VectorDescription, VectorCategory} {
		params := spaces[name]
		if params == nil {
			t.Fatalf("missing vector space %q", name)
		}
		if params.Size != EmbeddingDims {
			t.Fatalf("%s dims %d", name, params.Size)
		}
		if params.Distance != pb.Distance_Cosine {
			t.Fatalf("%s distance %v", name, params.Distance)
		}
	}
}

func TestEnsureCollection_ListError(t *testing.T) {
	cols := &mockCollections{listErr: errors.New("rpc fail")}
	vs := NewWithClients(&mockPoints{}, cols, "test")
	if err := vs.EnsureCollection(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureCollection_CreateError(t *testing.T) {
	cols := &mockCollections{
		listResp:  &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{}},
		createErr: errors.New("create fail"),
	}
	vs := NewWithClients(&mockPoints{}, cols, "test")
	if err := vs.EnsureCollection(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteCollection(t *testing.T) {
	cols := &mockCollections{deleteResp: &pb.CollectionOperationResponse{Result: true}}
	vs := NewWithClients(&mockPoints{}, cols, "test")
	if err := vs.DeleteCollection(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cols.deleteErr = errors.New("fail")
	if err := vs.DeleteCollection(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpsert_Empty(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pts.upsertReq != nil {
		t.Fatal("empty batch must not reach the backend")
	}
}

func TestUpsert_NamedVectors(t *testing.T) {
	pts := &mockPoints{upsertResp: &pb.PointsOperationResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "test")

	records := []VectorRecord{
		{
			ID: "id1",
			Vectors: map[string][]float32{
				VectorDescription: {1, 0},
				VectorCategory:    {0, 1},
			},
			Payload: map[string]any{
				"asset_id": "a1",
				"onFloor":  true,
				"scale":    [3]float64{1, 1, 1},
			},
		},
	}
	if err := vs.Upsert(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pts.upsertReq.Points) != 1 {
		t.Fatalf("points %d", len(pts.upsertReq.Points))
	}
	point := pts.upsertReq.Points[0]
	if point.GetId().GetUuid() != "id1" {
		t.Fatalf("point id %q", point.GetId().GetUuid())
	}
	named := point.GetVectors().GetVectors().GetVectors()
	if len(named) != 2 {
		t.Fatalf("named vectors %d", len(named))
	}
	if named[VectorDescription].GetData()[0] != 1 || named[VectorCategory].GetData()[1] != 1 {
		t.Fatal("vector spaces swapped or missing")
	}
	if point.Payload["asset_id"].GetStringValue() != "a1" {
		t.Fatalf("payload %v", point.Payload)
	}
	if !point.Payload["onFloor"].GetBoolValue() {
		t.Fatal("bool payload lost")
	}
	if len(point.Payload["scale"].GetListValue().GetValues()) != 3 {
		t.Fatal("list payload lost")
	}
}

func TestUpsert_Error(t *testing.T) {
	pts := &mockPoints{upsertErr: errors.New("fail")}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if err := vs.Upsert(context.Background(), []VectorRecord{{ID: "id1"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteByDataset(t *testing.T) {
	pts := &mockPoints{deleteResp: &pb.PointsOperationResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if err := vs.DeleteByDataset(context.Background(), "objaverse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	must := pts.deleteReq.GetPoints().GetFilter().GetMust()
	if len(must) != 1 {
		t.Fatalf("conditions %d", len(must))
	}
	fc := must[0].GetField()
	if fc.Key != "dataset" || fc.Match.GetKeyword() != "objaverse" {
		t.Fatalf("filter %v", fc)
	}

	pts.deleteErr = errors.New("fail")
	if err := vs.DeleteByDataset(context.Background(), "objaverse"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchDescription_QueriesDescriptionSpace(t *testing.T) {
	pts := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "p1"}},
					Score: 0.95,
					Payload: toPayload(map[string]any{
						"asset_id": "a1",
						"label":    "Sofa",
						"path":     "assets/a1.glb",
					}),
				},
			},
		},
	}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	results, err := vs.SearchDescription(context.Background(), []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := pts.searchReq.GetVectorName(); got != VectorDescription {
		t.Fatalf("queried space %q", got)
	}
	if pts.searchReq.Limit != 5 {
		t.Fatalf("limit %d", pts.searchReq.Limit)
	}
	if pts.searchReq.Filter != nil {
		t.Fatal("nil filters must not build a filter clause")
	}
	if len(results) != 1 {
		t.Fatalf("results %d", len(results))
	}
	if results[0].ID != "p1" || results[0].Score != 0.95 {
		t.Fatalf("hit %+v", results[0])
	}
	if results[0].Asset.AssetID != "a1" || results[0].Asset.Label != "Sofa" {
		t.Fatalf("asset %+v", results[0].Asset)
	}
}

func TestSearchCategory_QueriesCategorySpace(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if _, err := vs.SearchCategory(context.Background(), []float32{1}, 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pts.searchReq.GetVectorName(); got != VectorCategory {
		t.Fatalf("queried space %q", got)
	}
}

func TestSearch_Filters(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	_, err := vs.SearchDescription(context.Background(), []float32{1}, 1, map[string]any{
		"dataset": "objaverse",
		"onFloor": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	must := pts.searchReq.GetFilter().GetMust()
	if len(must) != 2 {
		t.Fatalf("conditions %d", len(must))
	}
	byKey := map[string]*pb.FieldCondition{}
	for _, c := range must {
		byKey[c.GetField().Key] = c.GetField()
	}
	if byKey["dataset"].Match.GetKeyword() != "objaverse" {
		t.Fatalf("dataset filter %v", byKey["dataset"])
	}
	if !byKey["onFloor"].Match.GetBoolean() {
		t.Fatalf("onFloor filter %v", byKey["onFloor"])
	}
}

func TestSearch_Error(t *testing.T) {
	pts := &mockPoints{searchErr: errors.New("fail")}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if _, err := vs.SearchDescription(context.Background(), []float32{1}, 5, nil); err == nil {
		t.Fatal("expected error")
	}
}

// --- Payload conversion ---

func TestPayloadRoundTrip(t *testing.T) {
	in := map[string]any{
		"asset_id":    "abc123",
		"description": "a dark green sofa",
		"category":    "sofa",
		"label":       "Sofa",
		"path":        "assets/abc123.glb",
		"dataset":     "objaverse",
		"frontview":   2,
		"onFloor":     true,
		"onWall":      false,
		"onCeiling":   false,
		"onObject":    false,
		"scale":       [3]float64{1, 0.5, 2},
		"boundingbox": [3]float64{2.1, 0.9, 0.8},
	}

	rec := assetFromPayload(toPayload(in))

	if rec.AssetID != "abc123" || rec.Dataset != "objaverse" {
		t.Fatalf("identity %q/%q", rec.Dataset, rec.AssetID)
	}
	if rec.Category != "sofa" || rec.Label != "Sofa" || rec.Description != "a dark green sofa" {
		t.Fatalf("text fields %+v", rec)
	}
	if rec.Path != "assets/abc123.glb" {
		t.Fatalf("path %q", rec.Path)
	}
	if rec.Frontview != 2 {
		t.Fatalf("frontview %d", rec.Frontview)
	}
	if !rec.OnFloor || rec.OnWall || rec.OnCeiling || rec.OnObject {
		t.Fatalf("flags %+v", rec)
	}
	if rec.Scale != [3]float64{1, 0.5, 2} {
		t.Fatalf("scale %v", rec.Scale)
	}
	if rec.Width != 2.1 || rec.Length != 0.9 || rec.Height != 0.8 {
		t.Fatalf("extents %g/%g/%g", rec.Width, rec.Length, rec.Height)
	}
}

func TestAssetFromPayloadDefaultsScale(t *testing.T) {
	rec := assetFromPayload(toPayload(map[string]any{"asset_id": "x"}))
	if rec.Scale != [3]float64{1, 1, 1} {
		t.Fatalf("scale default %v", rec.Scale)
	}
}

func TestFloatTripleRejectsWrongArity(t *testing.T) {
	p := toPayload(map[string]any{"scale": []float64{1, 2}})
	rec := assetFromPayload(p)
	if rec.Scale != [3]float64{1, 1, 1} {
		t.Fatalf("short list must keep default scale, got %v", rec.Scale)
	}
}
