package config

import "time"

// TargetConfig holds the remote CMS target and client policy.
type TargetConfig struct {
	BaseURL       string
	Username      string
	AppSecret     string
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
	QueryRouting  bool

	DeployStoreRedisAddr string
	DeployStoreRedisPass string
	DeployStoreRedisDB   int
}

// LoadTargetConfig constructs a TargetConfig from environment variables.
func LoadTargetConfig() TargetConfig {
	return TargetConfig{
		BaseURL:       GetString("CMS_BASE_URL", ""),
		Username:      GetString("CMS_USERNAME", ""),
		AppSecret:     GetString("CMS_APP_SECRET", ""),
		RetryAttempts: GetInt("CMS_RETRY_ATTEMPTS", 3),
		RetryDelay:    GetDuration("CMS_RETRY_DELAY", time.Second),
		Timeout:       GetDuration("CMS_REQUEST_TIMEOUT", 30*time.Second),
		QueryRouting:  GetBool("CMS_QUERY_ROUTING", false),

		DeployStoreRedisAddr: GetString("DEPLOY_STORE_REDIS_ADDR", ""),
		DeployStoreRedisPass: GetString("DEPLOY_STORE_REDIS_PASS", ""),
		DeployStoreRedisDB:   GetInt("DEPLOY_STORE_REDIS_DB", 0),
	}
}
