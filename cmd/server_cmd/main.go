package main

import (
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Giveth/vaultcontract/cmd"
	"github.com/Giveth/vaultcontract/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "VAULT_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	// Without it every setting comes from the environment.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Vault server configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Vault server configuration file not found: %s\n", _config_file)
			os.Exit(1)
		}
		if !initializeViper(_config_file) {
			os.Exit(1)
		}
	}

	// Make the configuration
	vsc := PrepareVaultServerConfig()
	if err := logconfig.ConfigLogger(vsc.LogPreset); err != nil {
		fmt.Printf("Error configuring logger: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Starting vault server... press Ctrl+C to kill the server")
	// Start server and block.
	if err := cmd.StartVaultServerAndWait(vsc); err != nil {
		logger.Fatalf("vault server stopped: %v", err)
	}
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s\n", err)
		return false
	}
	return true
}

// PrepareVaultServerConfig reads configuration variables and returns a VaultServerConfig.
func PrepareVaultServerConfig() *cmd.VaultServerConfig {
	viper.SetDefault("DB_FILE_PATH", "vault.db")
	viper.SetDefault("HTTP_IP", "127.0.0.1")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("LOG_PRESET", "info")

	return &cmd.VaultServerConfig{
		RpcUrl:       viper.GetString("RPC_URL"),
		VaultAddress: viper.GetString("VAULT_ADDRESS"),
		StartBlock:   viper.GetInt64("START_BLOCK"),
		KeeperPriv:   viper.GetString("KEEPER_PRIV"),
		DbFilePath:   viper.GetString("DB_FILE_PATH"),
		HttpIp:       viper.GetString("HTTP_IP"),
		HttpPort:     viper.GetString("HTTP_PORT"),

		FrequencyToCheckFinalizedBlock: viper.GetDuration("FREQUENCY_TO_CHECK_FINALIZED_BLOCK"),
		FrequencyToCollect:             viper.GetDuration("FREQUENCY_TO_COLLECT"),

		LogPreset: viper.GetString("LOG_PRESET"),
	}
}
