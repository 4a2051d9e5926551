// Package cluster holds the per-network on-chain configuration: program ids,
// mints, escrow accounts, decimal precision and the off-chain endpoints that
// belong to each Solana cluster.
package cluster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"

	"blinks/apperr"
)

var (
	ErrUnknownCluster      = errors.New("unknown cluster")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrMissingDecimals     = errors.New("decimals not configured")
	ErrMissingMint         = errors.New("mint not configured")
)

// Name - cluster identifier as it appears in the clusterurl query parameter
type Name string

const (
	Devnet  Name = "devnet"
	Mainnet Name = "mainnet"
	Staging Name = "staging"
)

// Names lists every supported cluster in a stable order.
var Names = []Name{Devnet, Mainnet, Staging}

// ParseName maps a clusterurl value to a Name. Empty selects devnet.
func ParseName(s string) (Name, error) {
	switch Name(strings.ToLower(strings.TrimSpace(s))) {
	case "", Devnet:
		return Devnet, nil
	case Mainnet:
		return Mainnet, nil
	case Staging:
		return Staging, nil
	}
	return "", apperr.Validationf("clusterurl", ErrUnknownCluster,
		"Invalid value for parameter: clusterurl. Expected one of: devnet, mainnet, staging")
}

// Currency - token symbol accepted for wagers and fees
type Currency string

const (
	SOL  Currency = "SOL"
	USDC Currency = "USDC"
	BONK Currency = "BONK"
	SEND Currency = "SEND"
)

// Currencies every cluster must be able to price.
var Currencies = []Currency{SOL, USDC, BONK, SEND}

// IsNative reports whether c is the chain's native currency.
func (c Currency) IsNative() bool { return c == SOL }

// ParseCurrency accepts the symbol in any case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
}

// Config is the resolved, typed configuration of one cluster.
type Config struct {
	Name                    Name
	ProgramID               solana.PublicKey
	NeverHaveIEverProgramID solana.PublicKey
	Mints                   map[Currency]solana.PublicKey
	Decimals                map[Currency]uint8
	EscrowAccount           solana.PublicKey
	EscrowTokenAccount      solana.PublicKey
	Treasury                solana.PublicKey
	RPCURL                  string
	BackendURL              string
	PartnerAPIKey           string
	XDareServerURL          string
	XDareAPIKey             string
	ExplorerCluster         string
	GenesisHash             string

	// NativeEscrowSubstitution keeps the legacy participate path for SOL:
	// the USDC mint is used and the user's token account is looked up
	// against the escrow key.
	NativeEscrowSubstitution bool
}

// DecimalsFor returns the precision of currency on this cluster.
func (c Config) DecimalsFor(currency Currency) (uint8, error) {
	d, ok := c.Decimals[currency]
	if !ok {
		return 0, apperr.Configuration(
			fmt.Sprintf("Decimals not configured for currency: %s", currency),
			fmt.Errorf("%w: %s on %s", ErrMissingDecimals, currency, c.Name))
	}
	return d, nil
}

// Mint returns the SPL mint for currency. SOL maps to the wrapped-SOL mint.
func (c Config) Mint(currency Currency) (solana.PublicKey, error) {
	m, ok := c.Mints[currency]
	if !ok || m.IsZero() {
		return solana.PublicKey{}, apperr.Configuration(
			fmt.Sprintf("Mint not configured for currency: %s", currency),
			fmt.Errorf("%w: %s on %s", ErrMissingMint, currency, c.Name))
	}
	return m, nil
}

// ExplorerTxURL links a signature on the public explorer.
func (c Config) ExplorerTxURL(signature string) string {
	base := "https://explorer.solana.com/tx/" + signature
	if c.ExplorerCluster == "" {
		return base
	}
	return base + "?cluster=" + c.ExplorerCluster
}

// BlockchainID is the CAIP-2 style id advertised in X-Blockchain-Ids.
func (c Config) BlockchainID() string {
	return "solana:" + c.GenesisHash
}

// Registry is the read-only set of cluster configurations.
type Registry struct {
	clusters map[Name]Config
}

// NewRegistry builds a registry from typed configs.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{clusters: make(map[Name]Config, len(configs))}
	for _, c := range configs {
		r.clusters[c.Name] = c
	}
	return r
}

// NewRegistryFromSettings parses raw settings (TOML / env) into a registry.
func NewRegistryFromSettings(settings map[string]Settings) (*Registry, error) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	configs := make([]Config, 0, len(settings))
	for _, k := range keys {
		name, err := ParseName(k)
		if err != nil || string(name) != strings.ToLower(k) {
			return nil, fmt.Errorf("cluster %q: %w", k, ErrUnknownCluster)
		}
		cfg, err := settings[k].Build(name)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", k, err)
		}
		configs = append(configs, cfg)
	}
	return NewRegistry(configs...), nil
}

// Resolve returns the configuration of name. A missing entry is a
// configuration defect: names are validated upstream by ParseName.
func (r *Registry) Resolve(name Name) (Config, error) {
	c, ok := r.clusters[name]
	if !ok {
		return Config{}, apperr.Configuration(
			fmt.Sprintf("Cluster not configured: %s", name),
			fmt.Errorf("%w: %s", ErrUnknownCluster, name))
	}
	return c, nil
}

// Names returns the configured cluster names in stable order.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.clusters))
	for _, n := range Names {
		if _, ok := r.clusters[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks every cluster up front so a missing decimal or mint entry
// stops the process at start-up instead of failing a request later.
func (r *Registry) Validate() error {
	if len(r.clusters) == 0 {
		return errors.New("no clusters configured")
	}
	var errs []error
	for _, name := range r.Names() {
		c := r.clusters[name]
		if c.ProgramID.IsZero() {
			errs = append(errs, fmt.Errorf("%s: program id missing", name))
		}
		if c.EscrowAccount.IsZero() {
			errs = append(errs, fmt.Errorf("%s: escrow account missing", name))
		}
		if c.Treasury.IsZero() {
			errs = append(errs, fmt.Errorf("%s: treasury missing", name))
		}
		if c.RPCURL == "" {
			errs = append(errs, fmt.Errorf("%s: rpc url missing", name))
		}
		if c.BackendURL == "" {
			errs = append(errs, fmt.Errorf("%s: backend url missing", name))
		}
		for _, cur := range Currencies {
			if _, err := c.DecimalsFor(cur); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
			if _, err := c.Mint(cur); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
