package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/repositories"
	tsclient "github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/typesense"
)

const collectionName = "hospitals"

// TypesenseAdapter implements hospital name search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements HospitalSearchRepository
var _ repositories.HospitalSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	// Create collection
	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "external_key", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "location", Type: "geopoint"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes a hospital profile
func (a *TypesenseAdapter) Index(ctx context.Context, hospital *entities.HospitalProfile) error {
	document := map[string]interface{}{
		"id":           hospital.ID,
		"external_key": hospital.ExternalKey,
		"name":         hospital.Name,
		"city":         hospital.City,
		"is_active":    hospital.IsActive,
		"location":     []float64{hospital.Location.Latitude, hospital.Location.Longitude},
		"created_at":   hospital.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index hospital: %w", err)
	}

	return nil
}

// Delete removes a hospital from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete hospital from index: %w", err)
	}
	return nil
}

// Search finds hospitals whose name matches the query
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.HospitalProfile, error) {
	if limit <= 0 {
		limit = 10
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String("is_active:=true"),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search hospitals: %w", err)
	}

	hospitals := []*entities.HospitalProfile{}
	if result.Hits == nil {
		return hospitals, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		hospitals = append(hospitals, documentToProfile(doc))
	}

	return hospitals, nil
}

// documentToProfile reconstructs a partial profile from a Typesense document.
// Callers needing the full registry record should re-fetch by id.
func documentToProfile(doc map[string]interface{}) *entities.HospitalProfile {
	hospital := &entities.HospitalProfile{}

	if val, ok := doc["id"].(string); ok {
		hospital.ID = val
	}
	if val, ok := doc["external_key"].(string); ok {
		hospital.ExternalKey = val
	}
	if val, ok := doc["name"].(string); ok {
		hospital.Name = val
	}
	if val, ok := doc["city"].(string); ok {
		hospital.City = val
	}
	if val, ok := doc["is_active"].(bool); ok {
		hospital.IsActive = val
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			hospital.Location.Latitude = lat
		}
		if lon, ok := loc[1].(float64); ok {
			hospital.Location.Longitude = lon
		}
	}

	return hospital
}
