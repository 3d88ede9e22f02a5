package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// RateSource produces USD-based conversion rates (currency code -> units per
// USD).
type RateSource interface {
	Fetch(ctx context.Context) (map[string]float64, error)
}

type ExchangeRateAPIResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// ExchangeRateAPISource pulls rates from exchangerate-api.com.
type ExchangeRateAPISource struct {
	APIKey string
	Client *http.Client
}

func (s *ExchangeRateAPISource) Fetch(ctx context.Context) (map[string]float64, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("exchange rate API key not configured")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("https://v6.exchangerate-api.com/v6/%s/latest/USD", s.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data ExchangeRateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.Result != "success" {
		return nil, fmt.Errorf("currency API returned an error")
	}
	return data.ConversionRates, nil
}

// CurrencyService caches conversion rates behind an RWMutex so booking flows
// never block on the rates API.
type CurrencyService struct {
	source RateSource
	ttl    time.Duration

	mu        sync.RWMutex
	rates     map[string]float64
	fetchedAt time.Time
}

func NewCurrencyService(source RateSource, ttl time.Duration) *CurrencyService {
	return &CurrencyService{source: source, ttl: ttl}
}

func (s *CurrencyService) Rates(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	if s.rates != nil && time.Since(s.fetchedAt) < s.ttl {
		rates := s.rates
		s.mu.RUnlock()
		return rates, nil
	}
	s.mu.RUnlock()

	log.Println("Fetching fresh exchange rates...")
	rates, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rates = rates
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return rates, nil
}

// Convert translates an amount between two currencies via the USD-based
// rate table.
func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return 0, err
	}

	fromRate, ok := rates[from]
	if !ok || fromRate == 0 {
		return 0, fmt.Errorf("%s exchange rate not available", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("%s exchange rate not available", to)
	}

	return amount / fromRate * toRate, nil
}
