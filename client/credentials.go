package client

import (
	"sync"

	activation "github.com/goliatone/go-activation"
)

// Credentials is the process-wide credential state the reauthenticating
// client maintains. It is only ever mutated through Set and Clear, both
// atomic with respect to readers, so a refresh landing mid-flight can never
// be observed half-applied.
type Credentials struct {
	mu          sync.RWMutex
	user        activation.PublicUserInfo
	accessToken string
	set         bool
}

// NewCredentials returns an empty credential holder.
func NewCredentials() *Credentials {
	return &Credentials{}
}

// Set replaces the stored user and access token in one step.
func (c *Credentials) Set(user activation.PublicUserInfo, accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	c.accessToken = accessToken
	c.set = true
}

// Clear logs the client out, dropping both user and token.
func (c *Credentials) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = activation.PublicUserInfo{}
	c.accessToken = ""
	c.set = false
}

// Token returns the current access token, if any.
func (c *Credentials) Token() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.set
}

// User returns the current user record, if any.
func (c *Credentials) User() (activation.PublicUserInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.set
}
