package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
	"github.com/de-tools/line-report/pkg/models/store"
)

func MapDomainCollectionToStore(c domain.ReportCollection) (store.ArchivedReport, error) {
	payload, err := json.Marshal(MapDomainCollectionToAPI(c))
	if err != nil {
		return store.ArchivedReport{}, fmt.Errorf("marshal collection: %w", err)
	}
	return store.ArchivedReport{
		ID:         c.ID,
		Surface:    c.Surface,
		Generation: c.Generation,
		Range:      c.Range.String(),
		State:      string(c.State),
		Processes:  c.Processes(),
		CreatedAt:  c.CreatedAt,
		Payload:    payload,
	}, nil
}

func MapStoreArchiveToDomain(r store.ArchivedReport) (domain.ReportCollection, error) {
	var c api.ReportCollection
	if err := json.Unmarshal(r.Payload, &c); err != nil {
		return domain.ReportCollection{}, fmt.Errorf("unmarshal archived collection %s: %w", r.ID, err)
	}
	return MapAPICollectionToDomain(c), nil
}
