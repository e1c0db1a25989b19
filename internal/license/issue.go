package license

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// Issuing-side tooling: key generation and license signing. Used by the
// `lite license keygen` and `lite license issue` commands; end-user installs
// only ever see the verification side.

// GenerateKeys writes a fresh Ed25519 key pair as private_key.pem and
// public_key.pem under dir and returns both paths.
func GenerateKeys(dir string) (privatePath, publicPath string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate key pair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create key dir: %w", err)
	}

	privatePath = filepath.Join(dir, "private_key.pem")
	publicPath = filepath.Join(dir, "public_key.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privatePath, privPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(publicPath, pubPEM, 0o644); err != nil {
		return "", "", fmt.Errorf("write public key: %w", err)
	}
	return privatePath, publicPath, nil
}

// LoadPrivateKey reads a PEM-encoded Ed25519 private key
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errf("cannot read private key: %v", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errf("private key is not PEM encoded")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errf("cannot parse private key: %v", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errf("private key is not Ed25519")
	}
	return priv, nil
}

// Issue signs a payload and writes the {payload, signature} envelope to
// outPath.
func Issue(payload map[string]interface{}, privateKeyPath, outPath string) error {
	priv, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return err
	}

	message, err := canonicalPayload(payload)
	if err != nil {
		return err
	}
	signature := ed25519.Sign(priv, message)

	envelope := licenseFile{
		Payload:   payload,
		Signature: base64.URLEncoding.EncodeToString(signature),
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encode license file: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write license file: %w", err)
	}
	return nil
}
