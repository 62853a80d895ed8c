package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Giveth/vaultcontract/cmd"
	"github.com/Giveth/vaultcontract/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "VAULT_USER_CONFIG"

	CfgRpcUrl       = "RPC_URL"
	CfgAccountPriv  = "ACCOUNT_PRIV"
	CfgVaultAddress = "VAULT_ADDRESS"
	CfgReporter     = "REPORTER"
	CfgTimeout      = "TIMEOUT"
	CfgLogPreset    = "LOG_PRESET"
)

var rootCmd = &cobra.Command{
	Use:           "vault-user",
	Short:         "Act on a Giveth vault as one account",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("rpc-url", "http://127.0.0.1:8545", "json rpc url of the ledger")
	flags.String("key", "", "hex private key of the acting account")
	flags.String("vault", "", "vault contract address")
	flags.String("reporter", "127.0.0.1:8080", "host:port of the vault server status api")
	flags.Duration("timeout", time.Minute, "deadline for one command, including waiting for receipts")
	flags.String("log", "info", "log preset: info, debug, production or a logrus level")

	bindFlag(CfgRpcUrl, "rpc-url")
	bindFlag(CfgAccountPriv, "key")
	bindFlag(CfgVaultAddress, "vault")
	bindFlag(CfgReporter, "reporter")
	bindFlag(CfgTimeout, "timeout")
	bindFlag(CfgLogPreset, "log")

	registerCommands(rootCmd)
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// initConfig layers flags over environment variables over the optional
// config file named by VAULT_USER_CONFIG.
func initConfig() error {
	viper.AutomaticEnv()

	if file := viper.GetString(ENV_CONFIG_FILE_PATH); file != "" {
		if !cmd.FileExists(file) {
			return fmt.Errorf("vault user configuration file not found: %s", file)
		}
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file: %w", err)
		}
	}

	return logconfig.ConfigLogger(viper.GetString(CfgLogPreset))
}

func PrepareVaultUserConfig() *cmd.VaultUserConfig {
	return &cmd.VaultUserConfig{
		RpcUrl:       viper.GetString(CfgRpcUrl),
		AccountPriv:  viper.GetString(CfgAccountPriv),
		VaultAddress: viper.GetString(CfgVaultAddress),
	}
}

// withUser connects as the configured account and runs fn under the
// command deadline.
func withUser(fn func(ctx context.Context, vu *cmd.VaultUser) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(CfgTimeout))
	defer cancel()

	vuc := PrepareVaultUserConfig()
	if vuc.AccountPriv == "" {
		return fmt.Errorf("no account key, set --key or %s", CfgAccountPriv)
	}
	vu, err := cmd.NewVaultUser(ctx, vuc)
	if err != nil {
		return err
	}
	defer vu.Close()

	return fn(ctx, vu)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
