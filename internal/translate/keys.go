package translate

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const keyringService = "tranfastic"

// KeyStore keeps provider API keys out of the config file.
type KeyStore interface {
	// Get returns "" without error when no key is stored.
	Get(provider string) (string, error)
	Set(provider, key string) error
	Delete(provider string) error
}

// Keyring stores keys in the OS credential store.
type Keyring struct{}

// NewKeyring returns the OS keyring store.
func NewKeyring() Keyring {
	return Keyring{}
}

func (Keyring) Get(provider string) (string, error) {
	key, err := keyring.Get(keyringService, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return key, err
}

func (Keyring) Set(provider, key string) error {
	if key == "" {
		return Keyring{}.Delete(provider)
	}
	return keyring.Set(keyringService, provider, key)
}

func (Keyring) Delete(provider string) error {
	err := keyring.Delete(keyringService, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
