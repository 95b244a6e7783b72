package grpc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pb "github.com/godilite/astromatch/api/v1"
	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/godilite/astromatch/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCacheDuration = 24 * time.Hour
	defaultGRPCTimeout   = 10 * time.Second
)

type CacheKeyType string

const (
	cacheKeyChart         CacheKeyType = "grpc:chart"
	cacheKeyCompatibility CacheKeyType = "grpc:compatibility"
)

type compatibilityRequest struct {
	PersonA service.BirthDetails `json:"person_a"`
	PersonB service.BirthDetails `json:"person_b"`
}

type quickRequest struct {
	Sign1 string `json:"sign1"`
	Sign2 string `json:"sign2"`
}

type GRPCHandlers struct {
	pb.UnimplementedSynastryServer
	synastry SynastryService
	cache    Cacher
	observer CacheObserver
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

type HandlerOption func(*GRPCHandlers)

// WithCacheObserver reports hits and misses of the result cache.
func WithCacheObserver(o CacheObserver) HandlerOption {
	return func(h *GRPCHandlers) {
		h.observer = o
	}
}

// NewGRPCHandlers initializes the gRPC handlers. A nil cache disables result caching.
func NewGRPCHandlers(synastry SynastryService, cache Cacher, logger *zap.Logger, ttl time.Duration, opts ...HandlerOption) *GRPCHandlers {
	if synastry == nil {
		panic("nil SynastryService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	h := &GRPCHandlers{
		synastry: synastry,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (s *GRPCHandlers) readThrough() readThrough {
	return readThrough{
		cache:    s.cache,
		sf:       &s.sfGroup,
		ttl:      s.cacheTTL,
		logger:   s.logger,
		observer: s.observer,
	}
}

func normalizeDetails(d service.BirthDetails) service.BirthDetails {
	d.Date = strings.TrimSpace(d.Date)
	d.Time = strings.ToLower(strings.Join(strings.Fields(d.Time), ""))
	if d.Latitude != nil && d.Longitude != nil {
		// The city is echoed verbatim as the display name.
		d.City = strings.TrimSpace(d.City)
	} else {
		d.City = geocoding.NormalizeName(d.City)
	}
	return d
}

// normalizeKey hashes the normalized request so equivalent inputs share an entry.
func normalizeKey(prefix CacheKeyType, details ...service.BirthDetails) string {
	norm := make([]service.BirthDetails, len(details))
	for i, d := range details {
		norm[i] = normalizeDetails(d)
	}
	raw, _ := json.Marshal(norm)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:16]))
}

func decodeRequest(req *structpb.Struct, v any) error {
	if err := pb.Decode(req, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := pb.Encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidBirthDate), errors.Is(err, service.ErrInvalidCoordinates):
		s.logger.Info("invalid birth details", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrEphemerisUnavailable):
		s.logger.Error("ephemeris unavailable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "ephemeris unavailable, retry later")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) BuildChart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var details service.BirthDetails
	if err := decodeRequest(req, &details); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyChart, details)

	chart, err := findAndCache(ctx, s.readThrough(), cacheKey, func(fetchCtx context.Context) (service.ChartResult, error) {
		return s.synastry.BuildChart(fetchCtx, details)
	})
	if err != nil {
		return nil, s.handleError(ctx, "BuildChart", err)
	}

	return encodeResponse(chart)
}

func (s *GRPCHandlers) GetCompatibility(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in compatibilityRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyCompatibility, in.PersonA, in.PersonB)

	match, err := findAndCache(ctx, s.readThrough(), cacheKey, func(fetchCtx context.Context) (service.MatchResult, error) {
		return s.synastry.Match(fetchCtx, in.PersonA, in.PersonB)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetCompatibility", err)
	}

	return encodeResponse(match)
}

func (s *GRPCHandlers) GetQuickCompatibility(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in quickRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Sign1) == "" || strings.TrimSpace(in.Sign2) == "" {
		return nil, status.Error(codes.InvalidArgument, "sign1 and sign2 are required")
	}

	return encodeResponse(s.synastry.QuickMatch(in.Sign1, in.Sign2))
}
