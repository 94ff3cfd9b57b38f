package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/postalcode"
	"github.com/spf13/cobra"
)

// lookupResult is the printed form of a resolved postal code.
type lookupResult struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	AreaCode     string `json:"area_code,omitempty"`
	Provider     string `json:"provider"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "lookup <cep>",
		Short: "Resolve a postal code",
		Long: `Resolve a postal code the way the server does: CEP Aberto first, then
ViaCEP. With --provider only the named service is asked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, rootOpts, provider, args[0])
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "ask a single provider (cepaberto|viacep)")

	return cmd
}

func runLookup(cmd *cobra.Command, opts *RootOptions, only, raw string) error {
	cfg, err := postalCodeConfig(opts.v)
	if err != nil {
		return err
	}
	logger := opts.logger(cmd.ErrOrStderr())

	cepAberto := postalcode.NewCepAberto(postalcode.CepAbertoConfig{
		BaseURL: cfg.CepAbertoURL,
		Token:   cfg.CepAbertoToken,
		Timeout: cfg.Timeout,
	}, logger)
	viaCep := postalcode.NewViaCep(postalcode.ViaCepConfig{
		BaseURL: cfg.ViaCepURL,
		Timeout: cfg.Timeout,
	}, logger)

	code := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")

	var addr *postalcode.Address
	switch only {
	case "":
		addr, err = postalcode.NewResolver(cepAberto, viaCep, nil, logger).Resolve(cmd.Context(), code)
	case postalcode.ProviderCepAberto:
		addr, err = resolveWith(cmd, cepAberto, code)
	case postalcode.ProviderViaCep:
		addr, err = resolveWith(cmd, viaCep, code)
	default:
		return fmt.Errorf("unknown provider %q", only)
	}
	if errors.Is(err, postalcode.ErrPostalCodeNotFound) {
		return fmt.Errorf("postal code %s not found", code)
	}
	if err != nil {
		return err
	}

	result := lookupResult{
		PostalCode:   domain.MaskPostalCode(code),
		Street:       addr.Street,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
		AreaCode:     addr.AreaCode,
		Provider:     addr.Provider,
	}

	out := newOutput(cmd.OutOrStdout(), opts.Format)
	if opts.Format == "json" {
		return out.JSON(result)
	}
	return out.Table(nil, [][]string{
		{"postal_code", result.PostalCode},
		{"street", result.Street},
		{"neighborhood", result.Neighborhood},
		{"city", result.City},
		{"state", result.State},
		{"area_code", result.AreaCode},
		{"provider", result.Provider},
	})
}

func resolveWith(cmd *cobra.Command, p postalcode.Provider, code string) (*postalcode.Address, error) {
	addr, ok := p.Normalize(p.Fetch(cmd.Context(), code))
	if !ok {
		return nil, postalcode.ErrPostalCodeNotFound
	}
	return &addr, nil
}
