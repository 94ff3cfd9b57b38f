package postalcode

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ProviderCepAberto names the primary provider.
const ProviderCepAberto = "cepaberto"

// CepAbertoConfig configures the CEP Aberto client.
type CepAbertoConfig struct {
	// BaseURL is the lookup endpoint, e.g. https://www.cepaberto.com/api/v3/cep
	BaseURL string
	Token   string
	Timeout time.Duration

	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// CepAberto queries GET <base>?cep=<code> with a token header.
//
// A hit looks like:
//
//	{"logradouro": "Praça da Sé", "bairro": "Sé",
//	 "cidade": {"nome": "São Paulo", "ibge": "3550308", "ddd": 11},
//	 "estado": {"sigla": "SP"}}
//
// A miss is either {} or an object with a "message" key.
type CepAberto struct {
	fetcher
	baseURL string
	token   string
}

var _ Provider = (*CepAberto)(nil)

// NewCepAberto creates the primary provider.
func NewCepAberto(cfg CepAbertoConfig, logger *slog.Logger) *CepAberto {
	return &CepAberto{
		fetcher: newFetcher(ProviderCepAberto, cfg.Client, cfg.Timeout, logger),
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
	}
}

func (c *CepAberto) Name() string {
	return ProviderCepAberto
}

func (c *CepAberto) Fetch(ctx context.Context, code string) Payload {
	header := http.Header{}
	header.Set("Authorization", "Token token="+c.token)
	return c.get(ctx, c.baseURL+"?"+url.Values{"cep": {code}}.Encode(), header)
}

func (c *CepAberto) Normalize(p Payload) (Address, bool) {
	if p.Empty() || stringField(p, "message") != "" {
		return Address{}, false
	}

	city := objectField(p, "cidade")
	state := objectField(p, "estado")
	addr := Address{
		Street:       stringField(p, "logradouro"),
		Neighborhood: stringField(p, "bairro"),
		City:         stringField(city, "nome"),
		State:        stringField(state, "sigla"),
		AreaCode:     stringField(city, "ibge"),
		Provider:     ProviderCepAberto,
	}
	if addr.City == "" || addr.State == "" {
		return Address{}, false
	}
	return addr, true
}
