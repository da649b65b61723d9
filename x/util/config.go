package util

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

// Config is Gatewarden base configuration
type Config struct {
	Server     Server     `yaml:"server"`
	Authorizer Authorizer `yaml:"authorizer"`
}

type Server struct {
	Dsn           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogPath       string `yaml:"logPath"`
}

type Authorizer struct {
	Issuer             string `yaml:"issuer"`
	Audience           string `yaml:"audience"`
	JwksEndpoint       string `yaml:"jwksEndpoint"`
	GroupsClaim        string `yaml:"groupsClaim"`        // defaults to "groups"
	KeyCacheTTL        int    `yaml:"keyCacheTTL"`        // seconds
	PolicyKeyPrefix    string `yaml:"policyKeyPrefix"`    // defaults to "policy:"
	StoreBatchLimit    int    `yaml:"storeBatchLimit"`    // keys per batched read
	StoreTimeout       int    `yaml:"storeTimeout"`       // milliseconds
	StoreRetryAttempts int    `yaml:"storeRetryAttempts"` // extra attempts at the entry point
	StoreRetryInterval int    `yaml:"storeRetryInterval"` // milliseconds
	AllowEmptyGroups   bool   `yaml:"allowEmptyGroups"`
	DenyPrefixOverride bool   `yaml:"denyPrefixOverride"`
}

// Load loads gatewarden config from given path
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(&c)
	if err != nil {
		return errors.Wrap(err, "failed to parse configuration file")
	}

	return nil
}

func (a Authorizer) GroupsClaimName() string {
	if a.GroupsClaim == "" {
		return "groups"
	}
	return a.GroupsClaim
}

func (a Authorizer) KeyCacheDuration() time.Duration {
	if a.KeyCacheTTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.KeyCacheTTL) * time.Second
}

func (a Authorizer) KeyPrefix() string {
	if a.PolicyKeyPrefix == "" {
		return "policy:"
	}
	return a.PolicyKeyPrefix
}

func (a Authorizer) BatchLimit() int {
	if a.StoreBatchLimit <= 0 {
		return 100
	}
	return a.StoreBatchLimit
}

func (a Authorizer) StoreCallTimeout() time.Duration {
	if a.StoreTimeout <= 0 {
		return 2 * time.Second
	}
	return time.Duration(a.StoreTimeout) * time.Millisecond
}

func (a Authorizer) RetryAttempts() int {
	if a.StoreRetryAttempts < 0 {
		return 0
	}
	if a.StoreRetryAttempts == 0 {
		return 1
	}
	return a.StoreRetryAttempts
}

func (a Authorizer) RetryInterval() time.Duration {
	if a.StoreRetryInterval <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(a.StoreRetryInterval) * time.Millisecond
}
