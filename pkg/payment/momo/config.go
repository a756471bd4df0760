package momo

import "errors"

// Config holds the MTN MoMo collection API credentials.
type Config struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
}

// Validate checks that all required configuration fields are set
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.SubscriptionKey == "" {
		return errors.New("subscription key is required")
	}
	if c.APIUser == "" {
		return errors.New("API user is required")
	}
	if c.APIKey == "" {
		return errors.New("API key is required")
	}
	if c.TargetEnv == "" {
		return errors.New("target environment is required")
	}
	return nil
}
