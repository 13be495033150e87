package service

import (
	"context"

	"askflow/backend/internal/llm"
)

// ModelService exposes the models offered by the backend.
type ModelService struct {
	llm llm.Provider
}

func NewModelService(provider llm.Provider) *ModelService {
	return &ModelService{llm: provider}
}

// List returns all models the backend advertises.
func (s *ModelService) List(ctx context.Context) ([]llm.ModelInfo, error) {
	return s.llm.ListModels(ctx)
}
