package whatsapp

import (
	"errors"
	"time"
)

const (
	// DefaultGraphBaseURL is the Meta Graph API endpoint
	DefaultGraphBaseURL = "https://graph.facebook.com"
	// DefaultAPIVersion is the Graph API version the bot talks to
	DefaultAPIVersion = "v18.0"
	// DefaultTimeout bounds a single Graph API call
	DefaultTimeout = 15 * time.Second
)

// Errors for WhatsApp configuration
var (
	ErrConfigMissingToken         = errors.New("whatsapp: access token is required")
	ErrConfigMissingPhoneNumberID = errors.New("whatsapp: phone number ID is required")
)

// ClientConfig holds what the Cloud API client needs to send messages
type ClientConfig struct {
	// Token is the permanent or system-user access token
	Token string
	// PhoneNumberID identifies the business number messages are sent from
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Timeout       time.Duration
}

// Validate checks required fields and fills defaults
func (c *ClientConfig) Validate() error {
	if c.Token == "" {
		return ErrConfigMissingToken
	}
	if c.PhoneNumberID == "" {
		return ErrConfigMissingPhoneNumberID
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultGraphBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
