package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
)

const rsaKeyBits = 2048

var (
	errNoPEMBlock      = errors.New("no PEM block found")
	errNotRSAKey       = errors.New("key is not an RSA key")
	errKeyPairMismatch = errors.New("public key does not belong to the private key")
)

type signingKeys struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// loadSigningKeys decodes base64-encoded PEM keys. With neither set outside
// production a throwaway pair is generated and issued sessions end with the
// process.
func loadSigningKeys(privateB64, publicB64 string, production bool) (signingKeys, error) {
	if privateB64 == "" || publicB64 == "" {
		if production {
			return signingKeys{}, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY environment variables must be set in production environments")
		}
		slog.Info("generating new RSA keypair for JWT; set JWT_PRIVATE_KEY and JWT_PUBLIC_KEY to keep sessions across restarts")
		private, public, err := GenerateRSAKeyPair()
		return signingKeys{private, public}, err
	}

	slog.Info("loading RSA keypair from environment variables")

	privatePEM, err := decodePEM("JWT_PRIVATE_KEY", privateB64)
	if err != nil {
		return signingKeys{}, err
	}
	publicPEM, err := decodePEM("JWT_PUBLIC_KEY", publicB64)
	if err != nil {
		return signingKeys{}, err
	}

	private, err := parsePrivateKey(privatePEM)
	if err != nil {
		return signingKeys{}, fmt.Errorf("failed to parse private key: %w", err)
	}
	public, err := parsePublicKey(publicPEM)
	if err != nil {
		return signingKeys{}, fmt.Errorf("failed to parse public key: %w", err)
	}
	if !private.PublicKey.Equal(public) {
		return signingKeys{}, errKeyPairMismatch
	}

	return signingKeys{private, public}, nil
}

// GenerateRSAKeyPair generates a new RSA key pair
func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return key, &key.PublicKey, nil
}

func decodePEM(name, encoded string) (*pem.Block, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s: %w", name, errNoPEMBlock)
	}
	return block, nil
}

// parsePrivateKey accepts PKCS#1 and PKCS#8 encodings
func parsePrivateKey(block *pem.Block) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errNotRSAKey
	}
	return key, nil
}

func parsePublicKey(block *pem.Block) (*rsa.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errNotRSAKey
	}
	return key, nil
}
