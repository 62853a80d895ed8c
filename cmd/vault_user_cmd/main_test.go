package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"regexp"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/cmd"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/reporter"
)

func newKey(t *testing.T) (string, string) {
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)
	return common.ByteSliceToPureHexStr(crypto.FromECDSA(sk)), crypto.PubkeyToAddress(sk.PublicKey).Hex()
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		out <- buf.String()
	}()

	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	w.Close()
	return <-out, err
}

func TestVaultUserCommands(t *testing.T) {
	ownerKey, ownerAddr := newKey(t)
	spenderKey, spenderAddr := newKey(t)
	_, recipientAddr := newKey(t)

	node, err := cmd.NewNode(&cmd.NodeConfig{
		PrivateKeys:    []string{ownerKey, spenderKey},
		AccountBalance: "10ether",
		ListenAddr:     "127.0.0.1:0",
	})
	require.NoError(t, err)
	srv := httptest.NewServer(node.Handler())
	t.Cleanup(srv.Close)

	as := func(key string, args ...string) []string {
		return append([]string{"--rpc-url", srv.URL, "--key", key, "--log", "error"}, args...)
	}

	_, err = run(t, as(ownerKey, "state")...)
	assert.ErrorIs(t, err, cmd.ErrNoVaultAddress)

	out, err := run(t, as(ownerKey, "deploy",
		"--escape-hatch-caller", ownerAddr,
		"--escape-hatch-destination", ownerAddr,
		"--security-guard", ownerAddr,
		"--absolute-min-timelock", "10",
		"--timelock", "1h",
		"--max-guard-delay", "1d")...)
	require.NoError(t, err)
	m := regexp.MustCompile(`vault deployed at (0x[0-9a-fA-F]{40})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	vaultAddr := m[1]

	withVault := func(key string, args ...string) []string {
		return as(key, append([]string{"--vault", vaultAddr}, args...)...)
	}

	_, err = run(t, withVault(ownerKey, "deposit", "1ether")...)
	require.NoError(t, err)
	_, err = run(t, withVault(ownerKey, "authorize-spender", spenderAddr, "--name", "grants")...)
	require.NoError(t, err)

	// only authorized spenders queue payments
	_, err = run(t, withVault(ownerKey, "authorize-payment", recipientAddr, "1000")...)
	assert.Error(t, err)

	out, err = run(t, withVault(spenderKey, "authorize-payment", recipientAddr, "1000",
		"--description", "october grant", "--delay", "90m")...)
	require.NoError(t, err)
	assert.Contains(t, out, "payment id 0")

	_, err = run(t, withVault(ownerKey, "collect", "0")...)
	assert.Error(t, err)

	out, err = run(t, withVault(ownerKey, "advance-time", "2h")...)
	require.NoError(t, err)
	assert.Contains(t, out, "ledger time is now")

	_, err = run(t, withVault(spenderKey, "collect", "0")...)
	require.NoError(t, err)

	out, err = run(t, withVault(ownerKey, "balance", recipientAddr)...)
	require.NoError(t, err)
	assert.Equal(t, recipientAddr+" 1000\n", out)

	out, err = run(t, withVault(ownerKey, "state")...)
	require.NoError(t, err)
	var st ledgerState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, ownerAddr, st.Vault.Owner)
	assert.Equal(t, uint64(3600), st.Vault.TimeLock)
	require.Len(t, st.Spenders, 1)
	assert.Equal(t, &reporter.SpenderView{
		Address:    spenderAddr,
		Name:       "grants",
		NameHash:   crypto.Keccak256Hash([]byte("grants")).Hex(),
		Idx:        st.Spenders[0].Idx,
		Authorized: true,
	}, st.Spenders[0])
	require.Len(t, st.Payments, 1)
	assert.Equal(t, "october grant", st.Payments[0].Description)
	assert.Equal(t, "1000", st.Payments[0].Amount)
	assert.Equal(t, "paid", st.Payments[0].Status)

	_, err = run(t, withVault(ownerKey, "cancel-payment", "x")...)
	assert.ErrorContains(t, err, "invalid payment id")
}
