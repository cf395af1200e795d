package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lendcore/cmd/internal/passphrase"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"
	"lendcore/native/lending"
	"lendcore/rpc"
)

const (
	keyPassEnv      = "LEND_KEY_PASS"
	defaultEndpoint = "http://localhost:8645"
	defaultKeystore = "./account.keystore"
	requestTimeout  = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 1
	}
	var err error
	switch args[0] {
	case "keygen":
		err = runKeygen(args[1:], stdout)
	case "address":
		err = runAddress(args[1:], stdout)
	case "nonce":
		err = runNonce(args[1:], stdout)
	case "position":
		err = runPosition(args[1:], stdout)
	case "call":
		err = runCall(args[1:], stdout, false)
	case "query":
		err = runCall(args[1:], stdout, true)
	case "pool":
		err = runPool(args[1:], stdout)
	case "sim":
		err = runSim(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: lendctl <command> [flags]

Commands:
  keygen    --out <keystore>                     create a new account keystore
  address   --keystore <path>                    print the account address
  nonce     <address>                            next call nonce of an account
  position  <address>                            collateral and debt summary
  call      --to <addr> --method <m> [--arg t:v]... [--decode types]
  query     --to <addr> --method <m> [--arg t:v]... [--decode types]
  pool      <deposit|borrow|repay|withdraw|claim|liquidate> --pool <addr> ...
  sim       <scenario.yaml>                      run a scenario against an in-process pool

Keystore passphrases are read from ` + keyPassEnv + ` or prompted.`)
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	pass, err := passphrase.NewSource(keyPassEnv).Get()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(path, pass)
}

func runKeygen(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	out := fs.String("out", defaultKeystore, "Output keystore path")
	force := fs.Bool("force", false, "Overwrite an existing keystore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*force {
		if _, err := os.Stat(*out); err == nil {
			return fmt.Errorf("keystore %s already exists (use --force to overwrite)", *out)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	pass, err := passphrase.NewSource(keyPassEnv).Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		return err
	}
	fmt.Fprintln(stdout, key.PubKey().Address().String())
	return nil
}

func runAddress(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	keystore := fs.String("keystore", defaultKeystore, "Account keystore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := crypto.KeystoreAddress(*keystore)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, addr.String())
	return nil
}

func endpointFlag(fs *flag.FlagSet) *string {
	def := defaultEndpoint
	if env := strings.TrimSpace(os.Getenv("LEND_RPC_URL")); env != "" {
		def = env
	}
	return fs.String("rpc", def, "Node JSON-RPC endpoint")
}

func runNonce(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("nonce", flag.ContinueOnError)
	endpoint := endpointFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("nonce requires an address")
	}
	addr, err := crypto.DecodeAddress(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	nonce, err := rpc.NewClient(*endpoint).Nonce(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, nonce)
	return nil
}

func runPosition(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("position", flag.ContinueOnError)
	endpoint := endpointFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("position requires an address")
	}
	addr, err := crypto.DecodeAddress(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	pos, err := rpc.NewClient(*endpoint).Position(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(stdout, pos)
}

func runCall(args []string, stdout io.Writer, readOnly bool) error {
	name := "call"
	if readOnly {
		name = "query"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	endpoint := endpointFlag(fs)
	keystore := fs.String("keystore", defaultKeystore, "Account keystore (optional for query)")
	to := fs.String("to", "", "Contract address")
	method := fs.String("method", "", "Contract method")
	decode := fs.String("decode", "", "Comma separated output types")
	var argSpecs argList
	fs.Var(&argSpecs, "arg", "Argument as type:value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target, err := crypto.DecodeAddress(*to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if strings.TrimSpace(*method) == "" {
		return errors.New("--method is required")
	}
	input, err := encodeArgs(argSpecs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	remote := rpc.Remote{Client: rpc.NewClient(*endpoint), Ctx: ctx, ReadOnly: readOnly}
	if !readOnly || keystoreProvided(fs) {
		if remote.Key, err = loadKey(*keystore); err != nil {
			return err
		}
	}
	out, err := remote.Call(target, *method, input)
	if err != nil {
		return err
	}
	rendered, err := decodeOutput(out, *decode)
	if err != nil {
		return err
	}
	if rendered == nil {
		fmt.Fprintln(stdout, hex.EncodeToString(out))
		return nil
	}
	for _, line := range rendered {
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func keystoreProvided(fs *flag.FlagSet) bool {
	provided := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "keystore" {
			provided = true
		}
	})
	return provided
}

func runPool(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New("pool requires an action")
	}
	action := args[0]
	fs := flag.NewFlagSet("pool "+action, flag.ContinueOnError)
	endpoint := endpointFlag(fs)
	keystore := fs.String("keystore", defaultKeystore, "Account keystore")
	poolFlag := fs.String("pool", "", "Pool contract address")
	assetFlag := fs.String("asset", "", "Underlying token address")
	amountFlag := fs.String("amount", "0", "Amount in the token's smallest unit")
	userFlag := fs.String("user", "", "Borrower to liquidate")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	poolAddr, err := crypto.DecodeAddress(*poolFlag)
	if err != nil {
		return fmt.Errorf("--pool: %w", err)
	}
	key, err := loadKey(*keystore)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	remote := rpc.Remote{Client: rpc.NewClient(*endpoint), Ctx: ctx, Key: key}
	pool := lending.PoolClient{Address: poolAddr}

	asset := func() (crypto.Address, error) {
		a, err := crypto.DecodeAddress(*assetFlag)
		if err != nil {
			return crypto.Address{}, fmt.Errorf("--asset: %w", err)
		}
		return a, nil
	}
	amount, err := fixedpoint.Parse(*amountFlag)
	if err != nil {
		return fmt.Errorf("--amount: %w", err)
	}

	switch action {
	case "deposit", "borrow", "repay", "claim":
		a, err := asset()
		if err != nil {
			return err
		}
		switch action {
		case "deposit":
			err = pool.Deposit(remote, a, amount)
		case "borrow":
			err = pool.Borrow(remote, a, amount)
		case "repay":
			interest, repayErr := pool.Repay(remote, a, amount)
			if repayErr == nil {
				fmt.Fprintf(stdout, "interest paid: %s\n", interest.Dec())
			}
			err = repayErr
		case "claim":
			claimed, claimErr := pool.ClaimRewards(remote, a)
			if claimErr == nil {
				fmt.Fprintf(stdout, "rewards claimed: %s\n", claimed.Dec())
			}
			err = claimErr
		}
		return err
	case "withdraw":
		return pool.WithdrawAllCollateral(remote)
	case "liquidate":
		user, err := crypto.DecodeAddress(*userFlag)
		if err != nil {
			return fmt.Errorf("--user: %w", err)
		}
		return pool.Liquidate(remote, user)
	default:
		return fmt.Errorf("unknown pool action %q", action)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
