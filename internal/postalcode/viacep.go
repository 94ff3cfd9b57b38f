package postalcode

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderViaCep names the fallback provider.
const ProviderViaCep = "viacep"

// ViaCepConfig configures the ViaCEP client.
type ViaCepConfig struct {
	// BaseURL is the service root, e.g. https://viacep.com.br/ws
	BaseURL string
	Timeout time.Duration

	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// ViaCep queries GET <base>/<code>/json/ without authentication.
//
// A hit looks like:
//
//	{"logradouro": "Praça da Sé", "bairro": "Sé", "localidade": "São Paulo",
//	 "uf": "SP", "ibge": "3550308"}
//
// A miss is {"erro": true}; newer deployments send the string "true".
type ViaCep struct {
	fetcher
	baseURL string
}

var _ Provider = (*ViaCep)(nil)

// NewViaCep creates the fallback provider.
func NewViaCep(cfg ViaCepConfig, logger *slog.Logger) *ViaCep {
	return &ViaCep{
		fetcher: newFetcher(ProviderViaCep, cfg.Client, cfg.Timeout, logger),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (v *ViaCep) Name() string {
	return ProviderViaCep
}

func (v *ViaCep) Fetch(ctx context.Context, code string) Payload {
	return v.get(ctx, v.baseURL+"/"+url.PathEscape(code)+"/json/", nil)
}

func (v *ViaCep) Normalize(p Payload) (Address, bool) {
	if p.Empty() || notFoundFlag(p["erro"]) {
		return Address{}, false
	}

	addr := Address{
		Street:       stringField(p, "logradouro"),
		Neighborhood: stringField(p, "bairro"),
		City:         stringField(p, "localidade"),
		State:        stringField(p, "uf"),
		AreaCode:     stringField(p, "ibge"),
		Provider:     ProviderViaCep,
	}
	if addr.City == "" || addr.State == "" {
		return Address{}, false
	}
	return addr, true
}

func notFoundFlag(v any) bool {
	switch flag := v.(type) {
	case bool:
		return flag
	case string:
		return strings.EqualFold(flag, "true")
	default:
		return false
	}
}
