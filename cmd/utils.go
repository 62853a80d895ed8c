package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/common"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// StringToPrivateKey parses a hex private key, with or without 0x.
func StringToPrivateKey(priv string) (*ecdsa.PrivateKey, error) {
	sk, err := crypto.HexToECDSA(common.Trim0xPrefix(priv))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return sk, nil
}

// Shared Helper function. Create a keyed transactor for chainID.
func NewTransactor(priv string, chainID *big.Int) (*bind.TransactOpts, error) {
	sk, err := StringToPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(sk, chainID)
}

// signalContext is cancelled on Ctrl-C (SIGINT) or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Infof("received signal: %v, cancelling context...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
