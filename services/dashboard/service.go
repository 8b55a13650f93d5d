package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"butterdish-backend/lib/scrapers/givebutter"
	"butterdish-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dashboard")

// an intermediary cache rate-limits upstream load through these windows,
// the service itself never coordinates requests
const (
	freshCacheControl    = "public, s-maxage=30, stale-while-revalidate=59"
	fallbackCacheControl = "public, s-maxage=30"
)

type Service struct {
	scraper *givebutter.Client
}

func NewService(scraper *givebutter.Client) Service {
	return Service{scraper: scraper}
}

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /campaign", s.Campaign)
	mux.HandleFunc("GET /donors", s.Donors)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// there is no safe synthetic substitute for campaign totals, so the one
// extraction strategy failing surfaces as an explicit error response
func (s Service) Campaign(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Campaign")
	defer span.End()

	page, err := s.scraper.FetchPage(ctx)
	var campaign givebutter.Campaign
	if err == nil {
		campaign, err = givebutter.ExtractCampaign(ctx, page)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "campaign pipeline failed")
		slog.ErrorContext(ctx, "failed to produce campaign snapshot", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   errorCode(err),
			Details: err.Error(),
		})
		return
	}

	campaign.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Cache-Control", freshCacheControl)
	writeJSON(w, http.StatusOK, campaign)
}

type donorsResponse struct {
	Donors []givebutter.Donation `json:"donors"`
}

// the dashboard must never show a broken state for recent activity, total
// exhaustion of the fallback chain is absorbed into static sample data
func (s Service) Donors(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Donors")
	defer span.End()

	donations := s.recentDonations(ctx)
	if len(donations) == 0 {
		span.AddEvent("substituting sample donations")
		w.Header().Set("Cache-Control", fallbackCacheControl)
		writeJSON(w, http.StatusOK, donorsResponse{Donors: SampleDonations(timezone.Now())})
		return
	}

	w.Header().Set("Cache-Control", freshCacheControl)
	writeJSON(w, http.StatusOK, donorsResponse{Donors: donations})
}

func (s Service) recentDonations(ctx context.Context) []givebutter.Donation {
	page, err := s.scraper.FetchPage(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch campaign page for donations", "err", err)
		return nil
	}

	return firstNonEmpty(ctx,
		func(ctx context.Context) ([]givebutter.Donation, error) {
			return givebutter.ScrapeDonations(ctx, page), nil
		},
		func(ctx context.Context) ([]givebutter.Donation, error) {
			return givebutter.ExtractEmbeddedDonations(ctx, page), nil
		},
		func(ctx context.Context) ([]givebutter.Donation, error) {
			return s.scraper.FetchFeedDonations(ctx, page)
		},
	)
}

// runs each extraction strategy in order, the first non-empty result wins.
// a strategy error advances the chain instead of surfacing.
func firstNonEmpty[T any](ctx context.Context, strategies ...func(context.Context) ([]T, error)) []T {
	for _, strategy := range strategies {
		out, err := strategy(ctx)
		if err != nil {
			slog.WarnContext(ctx, "extraction strategy failed", "err", err)
			continue
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, givebutter.ErrUpstreamUnreachable):
		return "upstream_unreachable"
	case errors.Is(err, givebutter.ErrUpstreamError):
		return "upstream_error"
	case errors.Is(err, givebutter.ErrCampaignDataNotFound):
		return "campaign_data_not_found"
	case errors.Is(err, givebutter.ErrMalformedExtraction):
		return "malformed_extraction"
	}
	return "internal"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response body", "err", err)
	}
}
