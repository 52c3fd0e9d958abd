package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
	"github.com/medgrid/bedfinder-backend/pkg/metrics"
	"github.com/medgrid/bedfinder-backend/pkg/provider"
	"github.com/medgrid/bedfinder-backend/pkg/types"
)

type directoryRepository interface {
	ListApprovedHospitals(ctx context.Context) ([]store.Hospital, error)
	FindHospitalByExternalRef(ctx context.Context, externalRef string) (store.Hospital, error)
	CreateHospital(ctx context.Context, hospital store.Hospital) (store.Hospital, error)
	FindBedTypeByName(ctx context.Context, name string) (store.BedType, error)
	CreateBedType(ctx context.Context, bedType store.BedType) (store.BedType, error)
	FindBedTypeByID(ctx context.Context, id uuid.UUID) (store.BedType, error)
	ListBedsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]store.Bed, error)
	ApplyRemoteCounts(ctx context.Context, hospitalID, bedTypeID uuid.UUID, counts store.RemoteBedCounts) (store.Bed, error)
}

type feedClient interface {
	Available(ctx context.Context) bool
	SearchHospitals(ctx context.Context, city, state string) ([]provider.RemoteHospital, error)
	FetchHospital(ctx context.Context, externalRef string) (*provider.RemoteHospital, error)
	Configure(baseURL, apiKey string)
	Settings() provider.Settings
}

// Service decides, per call, whether public reads are served from the
// external feed (merged into the local store first) or from local data
// alone. Feed trouble never reaches API clients; it logs and falls back.
type Service interface {
	Search(ctx context.Context, input SearchInput) ([]HospitalSummaryDTO, error)
	UpdateProviderSettings(ctx context.Context, baseURL, apiKey string) ProviderSettingsDTO
	ProviderSettings(ctx context.Context) ProviderSettingsDTO
}

type service struct {
	repo    directoryRepository
	feed    feedClient
	log     *logger.Logger
	metrics *metrics.SyncMetrics
}

// NewService builds the directory service. Metrics may be nil in tests.
func NewService(repo directoryRepository, feed feedClient, log *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	if feed == nil {
		return nil, fmt.Errorf("feed client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, feed: feed, log: log, metrics: syncMetrics}, nil
}

func (s *service) Search(ctx context.Context, input SearchInput) ([]HospitalSummaryDTO, error) {
	city := strings.TrimSpace(input.City)
	if city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}

	if s.feed.Available(ctx) {
		s.syncFromFeed(ctx, city, strings.TrimSpace(input.State))
	}

	hospitals, err := s.repo.ListApprovedHospitals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list hospitals")
	}

	out := make([]HospitalSummaryDTO, 0, len(hospitals))
	for _, hospital := range hospitals {
		if !matchesLocation(hospital, city, input.State) {
			continue
		}
		beds := s.bedsFor(ctx, hospital.ID)
		if input.BedType != "" && !hasBedType(beds, input.BedType) {
			continue
		}
		out = append(out, toSummaryDTO(hospital, beds))
	}
	return out, nil
}

// syncFromFeed merges the remote snapshot for one location into the
// local store. Every failure is logged and swallowed.
func (s *service) syncFromFeed(ctx context.Context, city, state string) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("search", time.Since(started)) }()

	remotes, err := s.feed.SearchHospitals(ctx, city, state)
	if err != nil {
		s.metrics.IncFailure()
		s.log.Error(ctx, "hospital feed search failed, serving local data", err)
		return
	}

	merged := 0
	for _, remote := range remotes {
		if strings.TrimSpace(remote.ExternalRef) == "" {
			continue
		}
		if err := s.mergeRemote(ctx, remote); err != nil {
			s.metrics.IncFailure()
			s.log.Error(ctx, "hospital feed merge failed", err)
			continue
		}
		merged++
	}
	s.metrics.IncHospitals(merged)
}

func (s *service) mergeRemote(ctx context.Context, remote provider.RemoteHospital) error {
	hospital, err := s.repo.FindHospitalByExternalRef(ctx, remote.ExternalRef)
	if errors.Is(err, store.ErrNotFound) {
		// First sighting: create the local record pre-approved. Feed
		// hospitals have no credentials and cannot log in.
		hospital, err = s.repo.CreateHospital(ctx, store.Hospital{
			Username:    syncUsername(remote.ExternalRef),
			Name:        remote.Name,
			Address:     remoteAddress(remote),
			Approved:    true,
			ExternalRef: remote.ExternalRef,
		})
		if errors.Is(err, store.ErrDuplicate) {
			hospital, err = s.repo.FindHospitalByExternalRef(ctx, remote.ExternalRef)
		}
	}
	if err != nil {
		return err
	}

	detail, err := s.feed.FetchHospital(ctx, remote.ExternalRef)
	if err != nil {
		return err
	}

	for _, remoteBed := range detail.Beds {
		bedType, err := s.resolveBedType(ctx, remoteBed.BedType)
		if err != nil {
			return err
		}
		if _, err := s.repo.ApplyRemoteCounts(ctx, hospital.ID, bedType.ID, store.RemoteBedCounts{
			Total:         remoteBed.Total,
			Available:     remoteBed.Available,
			PricePerNight: remoteBed.PricePerNight,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) resolveBedType(ctx context.Context, name string) (store.BedType, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return store.BedType{}, fmt.Errorf("empty bed type name in feed payload")
	}
	bedType, err := s.repo.FindBedTypeByName(ctx, trimmed)
	if err == nil {
		return bedType, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.BedType{}, err
	}
	created, err := s.repo.CreateBedType(ctx, store.BedType{Name: trimmed})
	if errors.Is(err, store.ErrDuplicate) {
		return s.repo.FindBedTypeByName(ctx, trimmed)
	}
	return created, err
}

// UpdateProviderSettings swaps the feed target at runtime. An empty key
// turns the feed off without erroring.
func (s *service) UpdateProviderSettings(ctx context.Context, baseURL, apiKey string) ProviderSettingsDTO {
	s.feed.Configure(baseURL, apiKey)
	s.log.Info(ctx, "hospital feed settings updated")
	return s.ProviderSettings(ctx)
}

func (s *service) ProviderSettings(ctx context.Context) ProviderSettingsDTO {
	settings := s.feed.Settings()
	return ProviderSettingsDTO{
		BaseURL:   settings.BaseURL,
		APIKeySet: settings.APIKeySet,
		Available: s.feed.Available(ctx),
	}
}

func (s *service) bedsFor(ctx context.Context, hospitalID uuid.UUID) []HospitalBedSummaryDTO {
	beds, err := s.repo.ListBedsByHospital(ctx, hospitalID)
	if err != nil {
		return nil
	}
	out := make([]HospitalBedSummaryDTO, 0, len(beds))
	for _, bed := range beds {
		name := ""
		if bedType, err := s.repo.FindBedTypeByID(ctx, bed.BedTypeID); err == nil {
			name = bedType.Name
		}
		out = append(out, HospitalBedSummaryDTO{
			BedTypeName:   name,
			TotalBeds:     bed.TotalBeds,
			AvailableBeds: bed.AvailableBeds,
			PricePerNight: bed.PricePerNight,
		})
	}
	return out
}

func matchesLocation(hospital store.Hospital, city, state string) bool {
	if !strings.EqualFold(strings.TrimSpace(hospital.Address.City), city) {
		return false
	}
	if trimmed := strings.TrimSpace(state); trimmed != "" {
		return strings.EqualFold(strings.TrimSpace(hospital.Address.State), trimmed)
	}
	return true
}

func hasBedType(beds []HospitalBedSummaryDTO, bedType string) bool {
	for _, bed := range beds {
		if strings.EqualFold(bed.BedTypeName, strings.TrimSpace(bedType)) && bed.AvailableBeds > 0 {
			return true
		}
	}
	return false
}

func syncUsername(externalRef string) string {
	return "feed-" + strings.ToLower(strings.TrimSpace(externalRef))
}

func remoteAddress(remote provider.RemoteHospital) (addr types.Address) {
	addr = types.Address{
		Line1:      remote.AddressLine,
		City:       remote.City,
		State:      remote.State,
		PostalCode: remote.PostalCode,
		Country:    remote.Country,
		Lat:        remote.Latitude,
		Lng:        remote.Longitude,
	}
	addr.Normalize()
	return addr
}
