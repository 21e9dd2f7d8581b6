// Package launchpad is the application service tying the protocol
// client together: token launches, phase-gated trading, and the
// generation-counted chart and portfolio refresh loops.
package launchpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/curve"
	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/history"
	"sui-launchpad/internal/kv"
	"sui-launchpad/internal/observability"
	"sui-launchpad/internal/phase"
	"sui-launchpad/internal/scheduler"
	"sui-launchpad/internal/sui"
)

// Submitter sends a prepared protocol action on-chain. Implemented by
// the wallet layer; the service only decides what to submit and when.
// Failed submissions are surfaced, never silently retried.
type Submitter interface {
	Submit(ctx context.Context, action string, args map[string]interface{}) (*sui.ExecuteResult, error)
}

// Uploader pushes token imagery to blob storage. Upload failure falls
// back to a caller-supplied URL without aborting the launch.
type Uploader interface {
	Upload(ctx context.Context, data []byte, retentionDays int) (string, error)
}

// RateSource resolves the SUI/USD rate for display values. The bool
// reports whether the rate came from the live oracle.
type RateSource interface {
	SuiUSD(ctx context.Context) (float64, bool)
}

// tokenMetaImagePrefix keys cached per-token display metadata.
const tokenMetaImagePrefix = "tokenmeta:image:"

// Options wires the service's collaborators.
type Options struct {
	Client    sui.Client
	Submitter Submitter
	Uploader  Uploader // optional; launches fall back to direct URLs
	Trades    history.TradeStore
	Candles   history.CandleStore
	KV        kv.Store
	Oracle    RateSource
	Scheduler scheduler.Scheduler
	PackageID string
	Logger    zerolog.Logger
	Now       func() time.Time // defaults to time.Now
}

// Service is the launchpad application service.
type Service struct {
	client    sui.Client
	submitter Submitter
	uploader  Uploader
	trades    history.TradeStore
	candles   history.CandleStore
	kv        kv.Store
	oracle    RateSource
	scheduler scheduler.Scheduler
	packageID string
	logger    zerolog.Logger
	now       func() time.Time

	mu           sync.Mutex
	tokens       map[string]*domain.Token
	charts       map[string]*ChartView
	chartGen     map[string]uint64
	portfolios   map[string]*domain.PortfolioSummary
	portfolioGen map[string]uint64
}

// ChartView is the latest replayed state for one token.
type ChartView struct {
	TokenID           string
	Trades            []*domain.Trade
	Candles           []*domain.Candle
	CirculatingSupply float64
	CurrentPrice      float64
	Balances          map[string]float64 // actor -> token balance
	UpdatedAtMs       int64
}

// New creates the service. Client, Submitter, Trades, Candles, KV,
// Scheduler and PackageID are required.
func New(opts Options) (*Service, error) {
	if opts.Client == nil || opts.Submitter == nil || opts.Trades == nil ||
		opts.Candles == nil || opts.KV == nil || opts.Scheduler == nil {
		return nil, errors.New("launchpad: missing required collaborator")
	}
	if opts.PackageID == "" {
		return nil, errors.New("launchpad: package ID is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		client:       opts.Client,
		submitter:    opts.Submitter,
		uploader:     opts.Uploader,
		trades:       opts.Trades,
		candles:      opts.Candles,
		kv:           opts.KV,
		oracle:       opts.Oracle,
		scheduler:    opts.Scheduler,
		packageID:    opts.PackageID,
		logger:       opts.Logger.With().Str("component", "launchpad").Logger(),
		now:          now,
		tokens:       make(map[string]*domain.Token),
		charts:       make(map[string]*ChartView),
		chartGen:     make(map[string]uint64),
		portfolios:   make(map[string]*domain.PortfolioSummary),
		portfolioGen: make(map[string]uint64),
	}, nil
}

// RegisterToken adds a token to the registry so its events can be
// replayed and its trades gated.
func (s *Service) RegisterToken(ctx context.Context, token *domain.Token) error {
	if token == nil || token.ID == "" || token.TotalSupply <= 0 {
		return ErrInvalidTokenConfig
	}

	s.mu.Lock()
	t := *token
	s.tokens[token.ID] = &t
	s.mu.Unlock()

	if token.ImageURL != "" {
		if err := s.kv.Set(ctx, tokenMetaImagePrefix+token.ID, token.ImageURL); err != nil {
			// Advisory cache only.
			s.logger.Warn().Err(err).Str("token_id", token.ID).Msg("failed to cache token image URL")
		}
	}
	return nil
}

// Token returns the registered token, or false if unknown.
func (s *Service) Token(tokenID string) (*domain.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return nil, false
	}
	tokenCopy := *t
	return &tokenCopy, true
}

// CreateTokenParams are the launch parameters for a new token.
type CreateTokenParams struct {
	Name                 string
	Symbol               string
	Decimals             int // 0 = default
	TotalSupply          float64
	EarlyPhaseDurationMs int64
	PhaseDurationMs      int64
	MaxBuyPerWallet      float64
	TransfersLocked      bool

	// ImageData is uploaded to blob storage when an uploader is wired.
	// On upload failure ImageURL is used as-is.
	ImageData []byte
	ImageURL  string
}

// CreateToken validates the launch parameters, uploads the image and
// submits the creation transaction. The returned token is registered
// for trading and refresh.
func (s *Service) CreateToken(ctx context.Context, params CreateTokenParams) (*domain.Token, error) {
	if params.Name == "" || params.Symbol == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", ErrInvalidTokenConfig)
	}
	if params.TotalSupply <= 0 {
		return nil, fmt.Errorf("%w: total supply must be positive", ErrInvalidTokenConfig)
	}

	decimals := params.Decimals
	if decimals == 0 {
		decimals = domain.DefaultDecimals
	}

	imageURL := params.ImageURL
	if len(params.ImageData) > 0 && s.uploader != nil {
		url, err := s.uploader.Upload(ctx, params.ImageData, 365)
		if err != nil {
			// Upload is fire-and-forget: degrade to the direct URL.
			s.logger.Warn().Err(err).Str("name", params.Name).Msg("image upload failed, using fallback URL")
		} else {
			imageURL = url
		}
	}

	args := map[string]interface{}{
		"name":                    params.Name,
		"symbol":                  params.Symbol,
		"decimals":                decimals,
		"total_supply":            params.TotalSupply,
		"early_phase_duration_ms": params.EarlyPhaseDurationMs,
		"phase_duration_ms":       params.PhaseDurationMs,
		"max_buy_per_wallet":      params.MaxBuyPerWallet,
		"transfers_locked":        params.TransfersLocked,
	}

	result, err := s.submitter.Submit(ctx, "create_token", args)
	if err != nil {
		return nil, fmt.Errorf("submit create_token: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrSubmitFailed, result.Error)
	}
	if len(result.CreatedObjects) == 0 {
		return nil, fmt.Errorf("%w: no token object created", ErrSubmitFailed)
	}

	token := &domain.Token{
		ID:                   result.CreatedObjects[0],
		Name:                 params.Name,
		Symbol:               params.Symbol,
		Decimals:             decimals,
		TotalSupply:          params.TotalSupply,
		LaunchTimeMs:         s.now().UnixMilli(),
		EarlyPhaseDurationMs: params.EarlyPhaseDurationMs,
		PhaseDurationMs:      params.PhaseDurationMs,
		MaxBuyPerWallet:      params.MaxBuyPerWallet,
		TransfersLocked:      params.TransfersLocked,
		ImageURL:             imageURL,
	}

	if err := s.RegisterToken(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Info().Str("token_id", token.ID).Str("symbol", token.Symbol).Msg("token launched")
	return token, nil
}

// QuoteBuy prices a buy of amount tokens at the current supply.
func (s *Service) QuoteBuy(tokenID string, amount float64) (float64, error) {
	token, view, err := s.tokenState(tokenID)
	if err != nil {
		return 0, err
	}
	return curve.CostForAmount(view.CirculatingSupply, token.TotalSupply, amount)
}

// QuoteSell prices the proceeds of selling amount tokens at the
// current supply.
func (s *Service) QuoteSell(tokenID string, amount float64) (float64, error) {
	token, view, err := s.tokenState(tokenID)
	if err != nil {
		return 0, err
	}
	return curve.CostForAmount(view.CirculatingSupply, token.TotalSupply, amount)
}

// Buy runs the local pre-checks and submits a buy. Pre-check failures
// reject before any network call.
func (s *Service) Buy(ctx context.Context, tokenID, actor string, amount float64) (*sui.ExecuteResult, error) {
	token, view, err := s.tokenState(tokenID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTokenConfig)
	}

	p := phase.ForToken(token, s.now().UnixMilli())
	if !phase.CanTrade(p) {
		return nil, ErrTradingNotOpen
	}
	if phase.BuyCapApplies(p) && token.MaxBuyPerWallet > 0 {
		if view.Balances[actor]+amount > token.MaxBuyPerWallet {
			return nil, ErrBuyCapExceeded
		}
	}
	if view.CirculatingSupply+amount > token.TotalSupply {
		return nil, ErrInsufficientSupply
	}

	cost, err := curve.CostForAmount(view.CirculatingSupply, token.TotalSupply, amount)
	if err != nil {
		return nil, err
	}

	result, err := s.submitter.Submit(ctx, "buy", map[string]interface{}{
		"token_id": tokenID,
		"amount":   amount,
		"max_cost": cost,
	})
	if err != nil {
		return nil, fmt.Errorf("submit buy: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrSubmitFailed, result.Error)
	}
	return result, nil
}

// Sell runs the local pre-checks and submits a sell.
func (s *Service) Sell(ctx context.Context, tokenID, actor string, amount float64) (*sui.ExecuteResult, error) {
	token, view, err := s.tokenState(tokenID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTokenConfig)
	}

	p := phase.ForToken(token, s.now().UnixMilli())
	if !phase.CanTrade(p) {
		return nil, ErrTradingNotOpen
	}
	if view.Balances[actor] < amount {
		return nil, ErrInsufficientBalance
	}

	proceeds, err := curve.CostForAmount(view.CirculatingSupply, token.TotalSupply, amount)
	if err != nil {
		return nil, err
	}

	result, err := s.submitter.Submit(ctx, "sell", map[string]interface{}{
		"token_id":     tokenID,
		"amount":       amount,
		"min_proceeds": proceeds,
	})
	if err != nil {
		return nil, fmt.Errorf("submit sell: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrSubmitFailed, result.Error)
	}
	return result, nil
}

// MarketStats is the per-token market summary.
type MarketStats struct {
	TokenID        string
	CurrentPrice   float64
	MarketCap      float64
	MarketCapUSD   float64 // 0 when no oracle is wired
	Volume24h      float64
	TotalVolume    float64
	HolderCount    int
	TradeCount     int
	PriceChange24h *float64 // nil when no 24h-old reference exists
}

// Stats computes market statistics from the latest replayed state.
func (s *Service) Stats(ctx context.Context, tokenID string) (*MarketStats, error) {
	token, view, err := s.tokenState(tokenID)
	if err != nil {
		return nil, err
	}

	marketCap, err := curve.MarketCap(view.CirculatingSupply, token.TotalSupply)
	if err != nil {
		return nil, err
	}

	stats := &MarketStats{
		TokenID:      tokenID,
		CurrentPrice: view.CurrentPrice,
		MarketCap:    marketCap,
		TradeCount:   len(view.Trades),
	}

	if s.oracle != nil {
		rate, live := s.oracle.SuiUSD(ctx)
		if !live {
			observability.RecordOracleFallback()
		}
		stats.MarketCapUSD = marketCap * rate
	}

	cutoff := s.now().UnixMilli() - 24*time.Hour.Milliseconds()
	var reference *domain.Trade
	for _, t := range view.Trades {
		stats.TotalVolume += t.Cost
		if t.TimestampMs >= cutoff {
			stats.Volume24h += t.Cost
		} else {
			reference = t
		}
	}

	for _, balance := range view.Balances {
		if balance > 0 {
			stats.HolderCount++
		}
	}

	// 24h change needs a price that is actually 24h old; with no trade
	// before the cutoff there is nothing honest to report.
	if reference != nil && reference.Price > 0 {
		change := (view.CurrentPrice - reference.Price) / reference.Price * 100
		stats.PriceChange24h = &change
	}

	return stats, nil
}

// Chart returns the latest replayed chart state, or false if the token
// has not been refreshed yet.
func (s *Service) Chart(tokenID string) (*ChartView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.charts[tokenID]
	if !ok {
		return nil, false
	}
	viewCopy := *view
	return &viewCopy, true
}

// Portfolio returns the latest computed portfolio for an actor, or
// false if it has not been refreshed yet.
func (s *Service) Portfolio(actor string) (*domain.PortfolioSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.portfolios[actor]
	if !ok {
		return nil, false
	}
	summaryCopy := *p
	return &summaryCopy, true
}

// FetchToken reads a launch object from chain and maps it to a token.
// Reads go through the retrying RPC client.
func (s *Service) FetchToken(ctx context.Context, tokenID string) (*domain.Token, error) {
	state, err := s.client.GetObject(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("fetch token object: %w", err)
	}
	if state == nil {
		return nil, ErrUnknownToken
	}

	token := &domain.Token{ID: tokenID, Decimals: domain.DefaultDecimals}
	var parseErr error

	str := func(field string) string {
		raw, ok := state.Fields[field]
		if !ok {
			return ""
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			parseErr = fmt.Errorf("field %s: %w", field, err)
		}
		return v
	}
	u64 := func(field string) int64 {
		v := str(field)
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			parseErr = fmt.Errorf("field %s: %w", field, err)
		}
		return n
	}

	token.Name = str("name")
	token.Symbol = str("symbol")
	token.TotalSupply = float64(u64("total_supply"))
	token.CirculatingSupply = float64(u64("circulating_supply"))
	token.LaunchTimeMs = u64("launch_time_ms")
	token.EarlyPhaseDurationMs = u64("early_phase_duration_ms")
	token.PhaseDurationMs = u64("phase_duration_ms")
	token.MaxBuyPerWallet = float64(u64("max_buy_per_wallet"))
	if raw, ok := state.Fields["transfers_locked"]; ok {
		_ = json.Unmarshal(raw, &token.TransfersLocked)
	}

	if parseErr != nil {
		return nil, parseErr
	}
	if token.TotalSupply <= 0 {
		return nil, fmt.Errorf("%w: object has no supply", ErrInvalidTokenConfig)
	}
	return token, nil
}

// tokenState returns the token and its latest chart view. An
// unrefreshed token gets an empty view at zero supply.
func (s *Service) tokenState(tokenID string) (*domain.Token, *ChartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, nil, ErrUnknownToken
	}
	tokenCopy := *token

	view, ok := s.charts[tokenID]
	if !ok {
		return &tokenCopy, &ChartView{TokenID: tokenID, Balances: map[string]float64{}}, nil
	}
	viewCopy := *view
	return &tokenCopy, &viewCopy, nil
}
