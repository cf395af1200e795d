package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const liquidationScenario = `
borrowingLimitPercent: 75
assets:
  - {symbol: COL, decimals: 0, price: "2"}
  - {symbol: DEBT, decimals: 0, price: "1"}
steps:
  - {action: mint, account: alice, asset: COL, amount: "1000"}
  - {action: mint, account: bob, asset: DEBT, amount: "5000"}
  - {action: mint, account: operator, asset: DEBT, amount: "5000"}
  - {action: deposit, account: bob, asset: DEBT, amount: "5000"}
  - {action: deposit, account: alice, asset: COL, amount: "1000"}
  - {action: borrow, account: alice, asset: DEBT, amount: "1501", expectError: "borrow exceeds collateral limit"}
  - {action: borrow, account: alice, asset: DEBT, amount: "1000"}
  - {action: position, user: alice}
  - {action: liquidate, account: operator, user: alice, expectError: "not liquidatable"}
  - {action: advance, advance: 1s}
  - {action: setPrice, asset: COL, price: "1"}
  - {action: position, user: alice}
  - {action: liquidate, account: operator, user: alice}
  - {action: balance, user: operator, asset: COL, amount: "1000"}
  - {action: balance, user: alice, asset: DEBT, amount: "1000"}
`

func TestScenarioLiquidation(t *testing.T) {
	sc, err := parseScenario([]byte(liquidationScenario))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, sc.Run(context.Background(), &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(sc.Steps))
	require.Contains(t, out.String(), "alice collateral=2000 debt=1000 liquidatable=false")
	require.Contains(t, out.String(), "alice collateral=1000 debt=1000 liquidatable=true")
}

func TestScenarioUnexpectedSuccessFails(t *testing.T) {
	sc, err := parseScenario([]byte(`
assets:
  - {symbol: A, price: "1"}
steps:
  - {action: mint, account: alice, asset: A, amount: "10", expectError: "boom"}
`))
	require.NoError(t, err)
	err = sc.Run(context.Background(), &bytes.Buffer{})
	require.ErrorContains(t, err, "expected error")
}

func TestParseScenarioRejectsUnknownFields(t *testing.T) {
	_, err := parseScenario([]byte("assets: [{symbol: A, price: \"1\"}]\nbogus: 1\n"))
	require.Error(t, err)
	_, err = parseScenario([]byte("steps: []\n"))
	require.Error(t, err)
}

func TestEncodeArgsRoundTrip(t *testing.T) {
	addr := accountAddress("alice").String()
	input, err := encodeArgs([]string{"str:hello", "addr:" + addr, "u256:123456789012345678901234567890", "u64:7", "bool:true", "strs:a,b"})
	require.NoError(t, err)
	rendered, err := decodeOutput(input, "str,addr,u256,u64,bool,strs")
	require.NoError(t, err)
	require.Equal(t, []string{"hello", addr, "123456789012345678901234567890", "7", "true", "a,b"}, rendered)

	_, err = encodeArgs([]string{"nope"})
	require.Error(t, err)
	_, err = encodeArgs([]string{"u256:-1"})
	require.Error(t, err)
	empty, err := encodeArgs(nil)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Usage: lendctl")
	require.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
}
