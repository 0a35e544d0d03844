package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/Shopify/ejson"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
	"k8s.io/klog"
)

const (
	ConfigEnvVar       = "BISTROLEDGER_CONFIG"
	EjsonSecretKeyEnv  = "BISTROLEDGER_EJSON_SECRET_KEY"
	defaultEjsonKeyDir = "/opt/ejson/keys"
)

var config Config
var secrets Secrets

func ReadConfig(configEnvVar, configFile, secretsFile string) error {
	_, err := readConfig(configEnvVar, configFile)
	if err != nil {
		return err
	}

	_, err = readSecrets(secretsFile)
	if err != nil {
		return err
	}
	return nil
}

func CurrentConfig() *Config {
	return &config
}

func CurrentSecrets() *Secrets {
	return &secrets
}

func CurrentFinanceConfig() *FinanceConfig {
	return &config.Finance
}

func CurrentBankConfig() *BankConfig {
	return &config.Bank
}

func CurrentBankSecrets() *BankSecrets {
	return &secrets.Bank
}

func CurrentSQLConfig() *SQLConfig {
	return &config.SQL
}

func CurrentSqlSecrets() *SqlSecrets {
	return &secrets.SQL
}

func CurrentInfluxConfig() *InfluxConfig {
	return &config.Influx
}

func CurrentInfluxSecrets() *InfluxSecrets {
	return &secrets.Influx
}

func readConfig(envName, filename string) (*Config, error) {
	var raw []byte
	var err error

	rawEnv := os.Getenv(envName)
	if rawEnv != "" {
		klog.Infof("Reading config from environment variable %s", envName)
		raw = []byte(rawEnv)
	} else {
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	config = Config{}
	err = yaml.Unmarshal(raw, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&config)

	return &config, nil
}

func readSecrets(filename string) (*Secrets, error) {
	ejsonSecrets, ejsonErr := readEjsonSecrets(filename)

	envSecrets, envErr := readEnvSecrets()

	if ejsonErr == nil && envErr == nil {
		// env values win, ejson fills in whatever env left empty
		err := mergo.Merge(envSecrets, *ejsonSecrets)
		if err != nil {
			return nil, fmt.Errorf("failed to merge secrets: %w", err)
		}
		secrets = *envSecrets
	} else if ejsonErr != nil && envErr == nil {
		klog.Warningf("Failed to parse ejson secrets, using environment only: %v", ejsonErr)
		secrets = *envSecrets
	} else if ejsonErr == nil && envErr != nil {
		klog.Warningf("Failed to parse env secrets, using ejson only: %v", envErr)
		secrets = *ejsonSecrets
	} else {
		return nil, fmt.Errorf("failed to parse secrets. Ejson error: %v. Env error: %v", ejsonErr, envErr)
	}

	return &secrets, nil
}

func readEjsonSecrets(filename string) (*Secrets, error) {
	ejsonSecrets := Secrets{}
	ejsonKeyFile := os.Getenv(EjsonSecretKeyEnv)
	ejsonKey := []byte{}
	var err error

	if ejsonKeyFile != "" {
		ejsonKey, err = os.ReadFile(ejsonKeyFile)
		if err != nil {
			return nil, err
		}
	}
	raw, err := ejson.DecryptFile(filename, defaultEjsonKeyDir, string(ejsonKey))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &ejsonSecrets)
	return &ejsonSecrets, err
}

func readEnvSecrets() (*Secrets, error) {
	envSecrets := Secrets{}
	err := env.Parse(&envSecrets)
	return &envSecrets, err
}
