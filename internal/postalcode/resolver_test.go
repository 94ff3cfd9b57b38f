package postalcode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a fixed payload and counts calls.
type stubProvider struct {
	name    string
	payload Payload
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, code string) Payload {
	s.calls++
	return s.payload
}

func (s *stubProvider) Normalize(p Payload) (Address, bool) {
	city, _ := p["city"].(string)
	state, _ := p["state"].(string)
	if city == "" || state == "" {
		return Address{}, false
	}
	return Address{City: city, State: state, Provider: s.name}, true
}

type observation struct {
	provider string
	outcome  string
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveLookup(provider, outcome string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{provider, outcome})
}

func TestResolver_Resolve(t *testing.T) {
	found := Payload{"city": "Curitiba", "state": "PR"}
	notFound := Payload{"erro": true}

	tests := []struct {
		name             string
		primary          Payload
		fallback         Payload
		wantProvider     string
		wantErr          error
		wantFallbackCall int
		wantObserved     []observation
	}{
		{
			name:             "primary answers",
			primary:          found,
			fallback:         found,
			wantProvider:     "a",
			wantFallbackCall: 0,
			wantObserved:     []observation{{"a", OutcomeFound}},
		},
		{
			name:             "primary empty, fallback answers",
			primary:          Payload{},
			fallback:         found,
			wantProvider:     "b",
			wantFallbackCall: 1,
			wantObserved:     []observation{{"a", OutcomeEmpty}, {"b", OutcomeFound}},
		},
		{
			name:             "primary not found, fallback answers",
			primary:          notFound,
			fallback:         found,
			wantProvider:     "b",
			wantFallbackCall: 1,
			wantObserved:     []observation{{"a", OutcomeNotFound}, {"b", OutcomeFound}},
		},
		{
			name:             "neither answers",
			primary:          Payload{},
			fallback:         notFound,
			wantErr:          ErrPostalCodeNotFound,
			wantFallbackCall: 1,
			wantObserved:     []observation{{"a", OutcomeEmpty}, {"b", OutcomeNotFound}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubProvider{name: "a", payload: tt.primary}
			fallback := &stubProvider{name: "b", payload: tt.fallback}
			obs := &recordingObserver{}

			r := NewResolver(primary, fallback, obs, discardLogger())
			addr, err := r.Resolve(context.Background(), "80010000")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, addr)
				assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantProvider, addr.Provider)
			}

			assert.Equal(t, 1, primary.calls)
			assert.Equal(t, tt.wantFallbackCall, fallback.calls)
			assert.Equal(t, tt.wantObserved, obs.seen)
		})
	}
}

func TestResolver_NilObserver(t *testing.T) {
	r := NewResolver(
		&stubProvider{name: "a"},
		&stubProvider{name: "b", payload: Payload{"city": "Natal", "state": "RN"}},
		nil,
		nil,
	)

	addr, err := r.Resolve(context.Background(), "59000000")
	require.NoError(t, err)
	assert.Equal(t, "Natal", addr.City)
}

func TestResolver_PrimaryDownFallsBackOverHTTP(t *testing.T) {
	var primaryHits, fallbackHits int
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer primarySrv.Close()

	fallbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits++
		w.Write([]byte(`{"localidade":"Salvador","uf":"BA","bairro":"Centro","logradouro":"Rua Chile"}`))
	}))
	defer fallbackSrv.Close()

	r := NewResolver(
		NewCepAberto(CepAbertoConfig{BaseURL: primarySrv.URL, Token: "t"}, discardLogger()),
		NewViaCep(ViaCepConfig{BaseURL: fallbackSrv.URL}, discardLogger()),
		nil,
		discardLogger(),
	)

	addr, err := r.Resolve(context.Background(), "40020000")
	require.NoError(t, err)
	assert.Equal(t, 1, primaryHits)
	assert.Equal(t, 1, fallbackHits)
	assert.Equal(t, "Salvador", addr.City)
	assert.Equal(t, ProviderViaCep, addr.Provider)
}

func TestResolver_BothDownIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResolver(
		NewCepAberto(CepAbertoConfig{BaseURL: srv.URL}, discardLogger()),
		NewViaCep(ViaCepConfig{BaseURL: srv.URL}, discardLogger()),
		nil,
		discardLogger(),
	)

	_, err := r.Resolve(context.Background(), "00000000")
	assert.True(t, errors.Is(err, ErrPostalCodeNotFound))
}
