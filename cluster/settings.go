package cluster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// NativeMint is the wrapped-SOL mint, identical on every cluster.
const NativeMint = "So11111111111111111111111111111111111111112"

// Settings - raw per-cluster values as they come from TOML or the environment
type Settings struct {
	ProgramID                string           `toml:"program_id"`
	NeverHaveIEverProgramID  string           `toml:"never_have_i_ever_program_id"`
	NativeMint               string           `toml:"native_mint"`
	USDCMint                 string           `toml:"usdc_mint"`
	BonkMint                 string           `toml:"bonk_mint"`
	SendMint                 string           `toml:"send_mint"`
	EscrowAccount            string           `toml:"escrow_account"`
	EscrowTokenAccount       string           `toml:"escrow_token_account"`
	Treasury                 string           `toml:"treasury"`
	RPCURL                   string           `toml:"rpc_url"`
	BackendURL               string           `toml:"backend_url"`
	PartnerAPIKey            string           `toml:"partner_api_key"`
	XDareServerURL           string           `toml:"xdare_server_url"`
	XDareAPIKey              string           `toml:"xdare_api_key"`
	ExplorerCluster          string           `toml:"explorer_cluster"`
	GenesisHash              string           `toml:"genesis_hash"`
	Decimals                 map[string]uint8 `toml:"decimals"`
	NativeEscrowSubstitution *bool            `toml:"native_escrow_substitution"`
}

// Build parses every key and returns the typed config.
func (s Settings) Build(name Name) (Config, error) {
	var errs []error
	key := func(field, value string, optional bool) solana.PublicKey {
		if strings.TrimSpace(value) == "" {
			if !optional {
				errs = append(errs, fmt.Errorf("%s is empty", field))
			}
			return solana.PublicKey{}
		}
		pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid public key %q: %w", field, value, err))
		}
		return pk
	}

	nativeMint := s.NativeMint
	if nativeMint == "" {
		nativeMint = NativeMint
	}

	cfg := Config{
		Name:                    name,
		ProgramID:               key("program_id", s.ProgramID, false),
		NeverHaveIEverProgramID: key("never_have_i_ever_program_id", s.NeverHaveIEverProgramID, true),
		Mints: map[Currency]solana.PublicKey{
			SOL:  key("native_mint", nativeMint, false),
			USDC: key("usdc_mint", s.USDCMint, false),
			BONK: key("bonk_mint", s.BonkMint, false),
			SEND: key("send_mint", s.SendMint, false),
		},
		Decimals:                 make(map[Currency]uint8, len(s.Decimals)),
		EscrowAccount:            key("escrow_account", s.EscrowAccount, false),
		EscrowTokenAccount:       key("escrow_token_account", s.EscrowTokenAccount, true),
		Treasury:                 key("treasury", s.Treasury, false),
		RPCURL:                   s.RPCURL,
		BackendURL:               strings.TrimRight(s.BackendURL, "/"),
		PartnerAPIKey:            s.PartnerAPIKey,
		XDareServerURL:           strings.TrimRight(s.XDareServerURL, "/"),
		XDareAPIKey:              s.XDareAPIKey,
		ExplorerCluster:          s.ExplorerCluster,
		GenesisHash:              s.GenesisHash,
		NativeEscrowSubstitution: true,
	}
	if s.NativeEscrowSubstitution != nil {
		cfg.NativeEscrowSubstitution = *s.NativeEscrowSubstitution
	}
	for sym, d := range s.Decimals {
		cur, err := ParseCurrency(sym)
		if err != nil {
			errs = append(errs, fmt.Errorf("decimals: %w", err))
			continue
		}
		cfg.Decimals[cur] = d
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}
