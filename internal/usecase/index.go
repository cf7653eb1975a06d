package usecase

import (
	"context"
	"fmt"

	"healthrag/internal/adapter/warehouse"
	"healthrag/internal/domain"
	"healthrag/internal/port"
)

const embedBatchSize = 100

// IndexUseCase builds the document corpus from a warehouse export.
type IndexUseCase struct {
	writer   port.DocumentWriter
	embedder port.Embedder
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(writer port.DocumentWriter, embedder port.Embedder) *IndexUseCase {
	return &IndexUseCase{writer: writer, embedder: embedder}
}

// IndexResult contains the results of an indexing run.
type IndexResult struct {
	EventRows        int
	DocumentsIndexed int
	PatientProfiles  int
	ProviderProfiles int
	OrgProfiles      int
	PayerProfiles    int
}

// Index loads the warehouse export at dir, renders it into documents,
// embeds them and writes everything to the store. onProgress, when not nil,
// is called after every stored batch with the running document count.
func (u *IndexUseCase) Index(ctx context.Context, dir string, onProgress func(done, total int)) (*IndexResult, error) {
	tables, err := warehouse.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse export: %w", err)
	}

	docs := warehouse.BuildDocuments(tables)
	result := &IndexResult{
		EventRows:        len(tables.Events),
		PatientProfiles:  len(tables.Patients),
		ProviderProfiles: len(tables.Providers),
		OrgProfiles:      len(tables.Organizations),
		PayerProfiles:    len(tables.Payers),
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}
		vectors, err := u.embedder.Embed(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if err := u.writer.Add(ctx, batch, vectors); err != nil {
			return nil, fmt.Errorf("failed to store batch at %d: %w", start, err)
		}

		result.DocumentsIndexed = end
		if onProgress != nil {
			onProgress(end, len(docs))
		}
	}

	return result, nil
}

const statsScanLimit = 10000

// Stats scans the corpus and summarizes it per actor dimension.
func Stats(ctx context.Context, store port.DocumentStore) (*domain.CorpusStats, error) {
	docs, err := store.SimilaritySearch(ctx, "", statsScanLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	stats := &domain.CorpusStats{TotalDocuments: len(docs)}
	patients := make(map[string]struct{})
	providers := make(map[string]struct{})
	orgs := make(map[string]struct{})
	payers := make(map[string]struct{})

	for _, d := range docs {
		if d.IsEvent() {
			stats.TotalEvents++
		}
		if v, ok := d.Metadata["patient_id"]; ok {
			patients[v] = struct{}{}
		}
		if v, ok := d.Metadata["provider_id"]; ok {
			providers[v] = struct{}{}
		}
		if v, ok := d.Metadata["organization_id"]; ok {
			orgs[v] = struct{}{}
		}
		if v, ok := d.Metadata["payer_id"]; ok {
			payers[v] = struct{}{}
		}
	}

	stats.UniquePatients = len(patients)
	stats.UniqueProviders = len(providers)
	stats.UniqueOrganizations = len(orgs)
	stats.UniquePayers = len(payers)
	return stats, nil
}
