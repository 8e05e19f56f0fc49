package config

import (
	"os"
	"path/filepath"

	"github.com/go-i2p/logger"
	"github.com/spf13/viper"
)

var (
	// CfgFile is an explicit config file path, set from the CLI flag.
	CfgFile string

	log = logger.GetGoI2PLogger()
)

const oblivionBaseDir = ".go-oblivion"

// InitConfig loads configuration from the config file, creating a
// default one on first run.
func InitConfig() {
	if CfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(BuildConfigDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	handleConfigFile()
}

func setDefaults() {
	viper.SetDefault("listen.host", DefaultServerConfig().Host)
	viper.SetDefault("listen.port", DefaultServerConfig().Port)
	viper.SetDefault("limits.handshake_rate", DefaultServerConfig().HandshakeRate)
	viper.SetDefault("limits.handshake_burst", DefaultServerConfig().HandshakeBurst)
}

func handleConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			if writeErr := createDefaultConfig(); writeErr != nil {
				log.Warnf("Could not write default config: %s", writeErr)
			}
			return
		}
		log.Warnf("Error reading config file: %s", err)
	}
}

func createDefaultConfig() error {
	dir := BuildConfigDirPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := viper.SafeWriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
		return err
	}
	log.WithField("path", dir).Debug("Wrote default config file")
	return nil
}

// BuildConfigDirPath returns the config directory under the user's
// home.
func BuildConfigDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return oblivionBaseDir
	}
	return filepath.Join(home, oblivionBaseDir)
}
