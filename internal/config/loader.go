package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable that points at a config file.
const ConfigPathEnv = "RELEASEWATCH_CONFIG_PATH"

// lambdaFunctionEnv is set by the AWS Lambda runtime.
const lambdaFunctionEnv = "AWS_LAMBDA_FUNCTION_NAME"

// maxConfigFileSize bounds the config file read.
const maxConfigFileSize = 10 * 1024 * 1024

// IsLambda reports whether the process runs inside AWS Lambda.
func IsLambda() bool {
	return os.Getenv(lambdaFunctionEnv) != ""
}

// GetConfigPath determines the configuration file path.
// Priority:
// 1. path passed in (usually the --config flag)
// 2. RELEASEWATCH_CONFIG_PATH environment variable
// 3. config.yaml / config.json in the current working directory
// An empty result means no file was found and defaults plus environment apply.
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		return configFilePathFlag
	}

	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, file := range []string{"config.yaml", "config.yml", "config.json"} {
		path := filepath.Join(cwd, file)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// LoadGlobalConfig builds the configuration in layers: defaults, then the
// config file (YAML or JSON), then a local .env file (skipped inside Lambda),
// then process environment variables. A store backend set by none of them
// is dynamodb inside Lambda and sqlite otherwise.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()
	// Resolved after all layers so Lambda can default to DynamoDB.
	cfg.StorageConfig.Backend = ""

	if filePath := GetConfigPath(providedPath); filePath != "" {
		if !fileExists(filePath) {
			return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
		}

		data, err := readConfigFile(filePath)
		if err != nil {
			return nil, common.WrapError(err, "failed to load config file content")
		}

		if err := parseConfigContent(data, filePath, cfg); err != nil {
			return nil, common.WrapError(err, "failed to parse config content")
		}
	}

	if !IsLambda() {
		if err := loadDotEnv(".env"); err != nil {
			return nil, common.WrapError(err, "failed to load .env file")
		}
	}

	ApplyEnv(cfg, os.LookupEnv)
	if cfg.StorageConfig.Backend == "" {
		cfg.StorageConfig.Backend = defaultStoreBackend()
	}
	return cfg, nil
}

// defaultStoreBackend is DynamoDB inside Lambda, where the filesystem is
// read-only, and SQLite everywhere else.
func defaultStoreBackend() string {
	if IsLambda() {
		return StoreBackendDynamoDB
	}
	return DefaultStorageBackend
}

// loadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	return godotenv.Load(path)
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewError("config file '%s' exceeds %d bytes", filePath, maxConfigFileSize)
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// Helper function to check if a file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
