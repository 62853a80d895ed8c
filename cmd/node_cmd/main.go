package main

import (
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Giveth/vaultcontract/cmd"
	"github.com/Giveth/vaultcontract/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "VAULT_NODE_CONFIG"
)

func main() {
	viper.AutomaticEnv()

	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Vault node configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Vault node configuration file not found: %s\n", _config_file)
			os.Exit(1)
		}
		viper.SetConfigFile(_config_file)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Printf("Error reading configuration file, %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetDefault("LOG_PRESET", "info")
	if err := logconfig.ConfigLogger(viper.GetString("LOG_PRESET")); err != nil {
		fmt.Printf("Error configuring logger: %s\n", err)
		os.Exit(1)
	}

	nc := PrepareNodeConfig()
	fmt.Println("Starting vault ledger... press Ctrl+C to kill the node")
	if err := cmd.StartNodeAndWait(nc); err != nil {
		logger.Fatalf("vault node stopped: %v", err)
	}
}

// PrepareNodeConfig reads configuration variables and returns a NodeConfig.
// PRIVATE_KEYS is a comma separated list, or a list in a config file.
func PrepareNodeConfig() *cmd.NodeConfig {
	viper.SetDefault("LISTEN_ADDR", "127.0.0.1:8545")

	return &cmd.NodeConfig{
		ChainID:        viper.GetInt64("CHAIN_ID"),
		PrivateKeys:    splitList(viper.GetStringSlice("PRIVATE_KEYS")),
		Accounts:       viper.GetInt("ACCOUNTS"),
		AccountBalance: viper.GetString("ACCOUNT_BALANCE"),
		BlockPeriod:    viper.GetDuration("BLOCK_PERIOD"),
		ListenAddr:     viper.GetString("LISTEN_ADDR"),
		MetricsAddr:    viper.GetString("METRICS_ADDR"),
	}
}

// splitList also splits entries on commas, environment values arrive as one
// string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, f := range strings.Split(s, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}
