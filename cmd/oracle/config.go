// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
)

// genesisConfig is the YAML file the oracle is initialized from.
type genesisConfig struct {
	Config    configEntry      `yaml:"config" validate:"required"`
	Whitelist []requesterEntry `yaml:"whitelist" validate:"dive"`
}

type configEntry struct {
	Gov                               string `yaml:"gov" validate:"required,min=2,max=64"`
	FinalArbitrator                   string `yaml:"final_arbitrator" validate:"required,min=2,max=64"`
	PaymentToken                      string `yaml:"payment_token" validate:"required,min=2,max=64"`
	StakeToken                        string `yaml:"stake_token" validate:"required,min=2,max=64"`
	ValidityBond                      string `yaml:"validity_bond" validate:"required,number"`
	MaxOutcomes                       uint8  `yaml:"max_outcomes" validate:"gte=2"`
	DefaultChallengeWindowDuration    uint64 `yaml:"default_challenge_window_duration" validate:"gt=0"`
	MinInitialChallengeWindowDuration uint64 `yaml:"min_initial_challenge_window_duration" validate:"gt=0"`
	FinalArbitratorInvokeAmount       string `yaml:"final_arbitrator_invoke_amount" validate:"required,number"`
	MinResolutionBond                 string `yaml:"min_resolution_bond" validate:"required,number"`
}

type requesterEntry struct {
	AccountID       string  `yaml:"account_id" validate:"required,min=2,max=64"`
	ContractName    string  `yaml:"contract_name"`
	StakeMultiplier *uint16 `yaml:"stake_multiplier"`
	CodeBaseURL     string  `yaml:"code_base_url" validate:"omitempty,url"`
	FixedFee        *string `yaml:"fixed_fee" validate:"omitempty,number"`
}

var validate = validator.New()

func loadGenesisConfig(path string) (*params.Config, []*whitelist.Requester, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open config")
	}
	defer f.Close()
	return parseGenesisConfig(f)
}

func parseGenesisConfig(r io.Reader) (*params.Config, []*whitelist.Requester, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var gc genesisConfig
	if err := dec.Decode(&gc); err != nil {
		return nil, nil, errors.Wrap(err, "decode config")
	}
	if err := validate.Struct(&gc); err != nil {
		return nil, nil, errors.Wrap(err, "validate config")
	}
	return gc.convert()
}

func parseAccount(field, s string) (flux.AccountID, error) {
	id, err := flux.ParseAccountID(s)
	if err != nil {
		return "", errors.WithMessage(err, field)
	}
	return id, nil
}

func parseAmount(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.WithMessage(err, field)
	}
	return v, nil
}

func (gc *genesisConfig) convert() (*params.Config, []*whitelist.Requester, error) {
	var (
		c   = gc.Config
		cfg = &params.Config{
			MaxOutcomes:                       c.MaxOutcomes,
			DefaultChallengeWindowDuration:    c.DefaultChallengeWindowDuration,
			MinInitialChallengeWindowDuration: c.MinInitialChallengeWindowDuration,
		}
		err error
	)
	for _, acc := range []struct {
		field string
		value string
		dst   *flux.AccountID
	}{
		{"gov", c.Gov, &cfg.Gov},
		{"final_arbitrator", c.FinalArbitrator, &cfg.FinalArbitrator},
		{"payment_token", c.PaymentToken, &cfg.PaymentToken},
		{"stake_token", c.StakeToken, &cfg.StakeToken},
	} {
		if *acc.dst, err = parseAccount(acc.field, acc.value); err != nil {
			return nil, nil, err
		}
	}
	for _, amount := range []struct {
		field string
		value string
		dst   **uint256.Int
	}{
		{"validity_bond", c.ValidityBond, &cfg.ValidityBond},
		{"final_arbitrator_invoke_amount", c.FinalArbitratorInvokeAmount, &cfg.FinalArbitratorInvokeAmount},
		{"min_resolution_bond", c.MinResolutionBond, &cfg.MinResolutionBond},
	} {
		if *amount.dst, err = parseAmount(amount.field, amount.value); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "validate config")
	}

	var requesters []*whitelist.Requester
	for _, e := range gc.Whitelist {
		account, err := parseAccount("whitelist account_id", e.AccountID)
		if err != nil {
			return nil, nil, err
		}
		r := &whitelist.Requester{
			AccountID:       account,
			ContractName:    e.ContractName,
			StakeMultiplier: e.StakeMultiplier,
			CodeBaseURL:     e.CodeBaseURL,
		}
		if e.FixedFee != nil {
			if r.FixedFee, err = parseAmount("whitelist fixed_fee", *e.FixedFee); err != nil {
				return nil, nil, err
			}
		}
		requesters = append(requesters, r)
	}
	return cfg, requesters, nil
}

// soloGenesis is used by solo mode when no config file is given. Both tokens
// are the dev token of the ledger.
func soloGenesis() (*params.Config, []*whitelist.Requester) {
	return &params.Config{
		Gov:                               "gov.near",
		FinalArbitrator:                   "arbitrator.near",
		PaymentToken:                      soloToken,
		StakeToken:                        soloToken,
		ValidityBond:                      uint256.NewInt(1_000_000),
		MaxOutcomes:                       8,
		DefaultChallengeWindowDuration:    60,
		MinInitialChallengeWindowDuration: 60,
		FinalArbitratorInvokeAmount:       uint256.NewInt(1_000_000_000),
		MinResolutionBond:                 uint256.NewInt(1_000_000),
	}, nil
}
