// Package license verifies Ed25519-signed license files. A license is a JSON
// document {payload, signature}; the signature covers the canonical payload
// encoding (sorted keys, no whitespace) and the payload binds product,
// expiry and machine code.
package license

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"time"
)

// DefaultProduct is the product identifier licenses must carry
const DefaultProduct = "factorlab_lite"

// Error is a license gate rejection
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "license error: " + e.Reason
}

func errf(format string, args ...interface{}) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Info is a successfully verified license
type Info struct {
	LicenseID   string `json:"license_id"`
	Plan        string `json:"plan"`
	ExpiresAt   string `json:"expires_at"`
	MachineCode string `json:"machine_code"`
	Product     string `json:"product"`
}

// licenseFile is the on-disk envelope
type licenseFile struct {
	Payload   map[string]interface{} `json:"payload"`
	Signature string                 `json:"signature"`
}

// MachineCode derives a stable 24-character device identifier from the OS,
// hostname and primary MAC address.
func MachineCode() string {
	host, _ := os.Hostname()
	raw := fmt.Sprintf("%s|%s|%d", runtime.GOOS, host, hardwareID())
	digest := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(digest[:]))[:24]
}

// hardwareID folds the first non-loopback MAC address into an integer
func hardwareID() uint64 {
	ifaces, err := net.Interfaces()
	if err != nil {
		return 0
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		var id uint64
		for _, b := range iface.HardwareAddr {
			id = id<<8 | uint64(b)
		}
		return id
	}
	return 0
}

// canonicalPayload encodes the payload with sorted keys and no whitespace,
// the exact bytes the signature covers.
func canonicalPayload(payload map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	// json.Encoder appends a newline; the signature does not cover it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// VerifyFile verifies a license file against a PEM public key and the
// current machine. An empty machineCode means "use this machine's".
func VerifyFile(licensePath, publicKeyPath, machineCode string) (*Info, error) {
	if machineCode == "" {
		machineCode = MachineCode()
	}

	raw, err := os.ReadFile(licensePath)
	if err != nil {
		return nil, errf("cannot read license file: %v", err)
	}

	var lf licenseFile
	if err := json.Unmarshal(raw, &lf); err != nil {
		return nil, errf("license file is not valid JSON: %v", err)
	}
	if lf.Payload == nil || lf.Signature == "" {
		return nil, errf("license file is missing payload or signature")
	}

	pub, err := LoadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}

	return VerifyContent(lf.Payload, lf.Signature, pub, machineCode)
}

// VerifyContent checks product, expiry, machine binding and signature
func VerifyContent(payload map[string]interface{}, signatureB64 string, pub ed25519.PublicKey, machineCode string) (*Info, error) {
	product := stringField(payload, "product")
	if product != DefaultProduct {
		return nil, errf("license product mismatch: %q", product)
	}

	expiresAt := stringField(payload, "expires_at")
	if expiresAt == "" {
		return nil, errf("license is missing expires_at")
	}
	expiry, err := time.Parse("2006-01-02", expiresAt)
	if err != nil {
		return nil, errf("license expires_at is malformed: %q", expiresAt)
	}
	if expiry.Before(time.Now().Truncate(24 * time.Hour)) {
		return nil, errf("license expired on %s", expiresAt)
	}

	licensed := strings.ToUpper(stringField(payload, "machine_code"))
	if licensed != "" && licensed != strings.ToUpper(machineCode) {
		return nil, errf("license machine code mismatch")
	}

	signature, err := base64.URLEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, errf("license signature is not valid base64: %v", err)
	}
	message, err := canonicalPayload(payload)
	if err != nil {
		return nil, errf("cannot canonicalize payload: %v", err)
	}
	if !ed25519.Verify(pub, message, signature) {
		return nil, errf("license signature verification failed")
	}

	info := &Info{
		LicenseID:   stringField(payload, "license_id"),
		Plan:        stringField(payload, "plan"),
		ExpiresAt:   expiresAt,
		MachineCode: licensed,
		Product:     product,
	}
	if info.LicenseID == "" {
		info.LicenseID = "UNKNOWN"
	}
	if info.Plan == "" {
		info.Plan = "lite"
	}
	if info.MachineCode == "" {
		info.MachineCode = strings.ToUpper(machineCode)
	}
	return info, nil
}

// LoadPublicKey reads a PEM-encoded Ed25519 public key
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errf("cannot read public key: %v", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errf("public key is not PEM encoded")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errf("cannot parse public key: %v", err)
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errf("public key is not Ed25519")
	}
	return pub, nil
}

func stringField(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
