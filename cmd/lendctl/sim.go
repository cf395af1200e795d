package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lendcore/core/genesis"
	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"
	"lendcore/native/lending"
	"lendcore/native/oracle"
	"lendcore/native/token"
	"lendcore/storage"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// Scenario drives an in-process deployment with a manual clock. Accounts are
// referred to by name; "operator" deploys the markets and mints supply.
type Scenario struct {
	Start                 uint64              `yaml:"start"`
	BorrowingLimitPercent uint64              `yaml:"borrowingLimitPercent"`
	Liquidator            string              `yaml:"liquidator"`
	Assets                []genesis.AssetSpec `yaml:"assets"`
	Steps                 []Step              `yaml:"steps"`
}

type Step struct {
	Action  string        `yaml:"action"`
	Account string        `yaml:"account"`
	User    string        `yaml:"user"`
	Asset   string        `yaml:"asset"`
	Amount  string        `yaml:"amount"`
	Price   string        `yaml:"price"`
	Advance time.Duration `yaml:"advance"`
	// ExpectError, when set, must be a substring of the step's error.
	ExpectError string `yaml:"expectError"`
}

const operatorName = "operator"

func runSim(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("sim requires a scenario file")
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	sc, err := parseScenario(raw)
	if err != nil {
		return err
	}
	return sc.Run(context.Background(), stdout)
}

func parseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if len(sc.Assets) == 0 {
		return nil, errors.New("scenario: at least one asset required")
	}
	if sc.BorrowingLimitPercent == 0 {
		sc.BorrowingLimitPercent = 75
	}
	if sc.Start == 0 {
		sc.Start = 1_700_000_000_000
	}
	return &sc, nil
}

// accountAddress derives a stable account address for a scenario name.
func accountAddress(name string) crypto.Address {
	digest := crypto.Keccak256([]byte("lendctl/sim"), []byte(strings.ToLower(name)))
	return crypto.NewAddress(crypto.AccountPrefix, digest[len(digest)-crypto.AddressLength:])
}

type simulation struct {
	ctx   context.Context
	host  *host.Host
	clock *host.ManualClock
	d     *genesis.Deployment
	out   io.Writer
}

func (sc *Scenario) Run(ctx context.Context, out io.Writer) error {
	clock := host.NewManualClock(sc.Start)
	h := host.New(storage.NewMemDB(), host.WithClock(clock))
	spec := &genesis.Spec{
		Operator:              accountAddress(operatorName).String(),
		BorrowingLimitPercent: sc.BorrowingLimitPercent,
		Assets:                sc.Assets,
	}
	if sc.Liquidator != "" {
		spec.Liquidator = accountAddress(sc.Liquidator).String()
	}
	d, err := genesis.Build(ctx, h, spec)
	if err != nil {
		return err
	}
	sim := &simulation{ctx: ctx, host: h, clock: clock, d: d, out: out}
	for i, step := range sc.Steps {
		err := sim.apply(step)
		switch {
		case step.ExpectError != "" && err == nil:
			return fmt.Errorf("step %d (%s): expected error containing %q", i+1, step.Action, step.ExpectError)
		case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
			return fmt.Errorf("step %d (%s): expected error containing %q, got %v", i+1, step.Action, step.ExpectError, err)
		case step.ExpectError != "":
			fmt.Fprintf(out, "%3d %-10s rejected: %v\n", i+1, step.Action, err)
		case err != nil:
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (s *simulation) session(name string) host.Session {
	if name == "" {
		name = operatorName
	}
	return host.NewSession(s.ctx, s.host, accountAddress(name))
}

func (s *simulation) market(symbol string) (genesis.Market, error) {
	m, ok := s.d.Market(strings.ToUpper(strings.TrimSpace(symbol)))
	if !ok {
		return genesis.Market{}, fmt.Errorf("unknown asset %q", symbol)
	}
	return m, nil
}

func (s *simulation) apply(step Step) error {
	pool := lending.PoolClient{Address: s.d.Pool}
	var amount *uint256.Int
	if step.Amount != "" {
		v, err := fixedpoint.Parse(step.Amount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		amount = v
	}
	switch step.Action {
	case "mint", "deposit", "borrow", "repay":
		if amount == nil {
			return errors.New("amount required")
		}
	}

	switch step.Action {
	case "advance":
		s.clock.Advance(step.Advance)
		s.logf(step, "clock=%d", s.clock.NowMillis())
		return nil
	case "mint":
		m, err := s.market(step.Asset)
		if err != nil {
			return err
		}
		user := s.session(step.Account)
		if err := (token.Client{Address: m.Token}).Mint(s.session(operatorName), user.From, amount); err != nil {
			return err
		}
		max := new(uint256.Int).SetAllOne()
		if err := (token.Client{Address: m.Token}).Approve(user, s.d.Pool, max); err != nil {
			return err
		}
		s.logf(step, "%s %s to %s", amount.Dec(), m.Symbol, step.Account)
		return nil
	case "setPrice":
		m, err := s.market(step.Asset)
		if err != nil {
			return err
		}
		err = oracle.Client{Address: s.d.Oracle}.UpdatePrices(s.session(operatorName), []string{m.Symbol}, []string{""}, []string{step.Price})
		if err == nil {
			s.logf(step, "%s=%s", m.Symbol, step.Price)
		}
		return err
	case "deposit", "borrow", "repay", "claim":
		m, err := s.market(step.Asset)
		if err != nil {
			return err
		}
		via := s.session(step.Account)
		switch step.Action {
		case "deposit":
			err = pool.Deposit(via, m.Token, amount)
		case "borrow":
			err = pool.Borrow(via, m.Token, amount)
		case "repay":
			var interest *uint256.Int
			if interest, err = pool.Repay(via, m.Token, amount); err == nil {
				s.logf(step, "%s %s principal, %s interest", amount.Dec(), m.Symbol, interest.Dec())
				return nil
			}
		case "claim":
			var claimed *uint256.Int
			if claimed, err = pool.ClaimRewards(via, m.Token); err == nil {
				s.logf(step, "%s %s", claimed.Dec(), m.Symbol)
				return nil
			}
		}
		if err == nil {
			s.logf(step, "%s %s", amount.Dec(), m.Symbol)
		}
		return err
	case "withdraw":
		err := pool.WithdrawAllCollateral(s.session(step.Account))
		if err == nil {
			s.logf(step, "%s", step.Account)
		}
		return err
	case "liquidate":
		err := pool.Liquidate(s.session(step.Account), accountAddress(step.User))
		if err == nil {
			s.logf(step, "%s by %s", step.User, step.Account)
		}
		return err
	case "position":
		name := step.User
		if name == "" {
			name = step.Account
		}
		pos, err := pool.Position(s.session(name).Reader(), accountAddress(name))
		if err != nil {
			return err
		}
		s.logf(step, "%s collateral=%s debt=%s liquidatable=%t", name, pos.CollateralValue.Dec(), pos.DebtValue.Dec(), pos.Liquidatable)
		return nil
	case "balance":
		m, err := s.market(step.Asset)
		if err != nil {
			return err
		}
		name := step.User
		if name == "" {
			name = step.Account
		}
		bal, err := token.Client{Address: m.Token}.BalanceOf(s.session(name).Reader(), accountAddress(name))
		if err != nil {
			return err
		}
		if amount != nil && !bal.Eq(amount) {
			return fmt.Errorf("%s balance of %s is %s, want %s", m.Symbol, name, bal.Dec(), amount.Dec())
		}
		s.logf(step, "%s %s=%s", name, m.Symbol, bal.Dec())
		return nil
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (s *simulation) logf(step Step, format string, a ...interface{}) {
	fmt.Fprintf(s.out, "%-10s %s\n", step.Action, fmt.Sprintf(format, a...))
}
