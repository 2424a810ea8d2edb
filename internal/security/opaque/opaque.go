// Package opaque implementa el gateway de IDs opacos: la transformación
// reversible entre IDs internos y los tokens expuestos por la API.
//
// Formato del token: base64url(nonce || ciphertext), AES-256-GCM. El tipo de
// recurso (consent, authorisation, payment) se liga como additional data, de
// modo que un token de consent no puede presentarse como token de
// authorisation. La clave de cifrado se deriva de la master key con HKDF.
//
// Todo fallo de este paquete es un error técnico (infraestructura), nunca
// lógico: los callers lo distinguen de "not found" para elegir el status
// HTTP.
package opaque

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// EnvMasterKey es la variable de entorno con la master key en base64.
	EnvMasterKey = "CONSENTD_OPAQUE_MASTER_KEY"

	nonceSizeGCM      = 12 // AES-GCM nonce recomendado (96 bits)
	requiredKeyLength = 32 // 32 bytes => AES-256

	hkdfInfo = "consentd/opaque/v1"
)

var (
	// ErrNotDecryptable indica que el token no pudo descifrarse: formato
	// inválido, clave distinta o token manipulado.
	ErrNotDecryptable = errors.New("opaque: token not decryptable")

	// ErrEncryptionFailed indica un fallo al producir el token.
	ErrEncryptionFailed = errors.New("opaque: encryption failed")
)

// Kind es el tipo de recurso ligado al token.
type Kind string

const (
	KindConsent       Kind = "consent"
	KindAuthorisation Kind = "authorisation"
	KindPayment       Kind = "payment"
)

// Codec cifra y descifra IDs. Es seguro para uso concurrente.
type Codec struct {
	aead cipher.AEAD
}

// New crea un Codec a partir de una master key cruda de 32 bytes.
// La clave de cifrado efectiva se deriva con HKDF-SHA256.
func New(masterKey []byte) (*Codec, error) {
	if len(masterKey) != requiredKeyLength {
		return nil, fmt.Errorf("opaque: master key debe tener %d bytes, tiene %d", requiredKeyLength, len(masterKey))
	}
	sub := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo)), sub); err != nil {
		return nil, fmt.Errorf("opaque: hkdf: %w", err)
	}
	block, err := aes.NewCipher(sub)
	if err != nil {
		return nil, fmt.Errorf("opaque: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("opaque: cipher.NewGCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// NewFromEnv crea un Codec con la master key de CONSENTD_OPAQUE_MASTER_KEY
// (base64). Genere una clave con: openssl rand -base64 32
func NewFromEnv() (*Codec, error) {
	kb64 := strings.TrimSpace(os.Getenv(EnvMasterKey))
	if kb64 == "" {
		return nil, fmt.Errorf("opaque: %s no seteada; genere una clave con: openssl rand -base64 32", EnvMasterKey)
	}
	k, err := base64.StdEncoding.DecodeString(kb64)
	if err != nil {
		return nil, fmt.Errorf("opaque: decode %s: %w", EnvMasterKey, err)
	}
	return New(k)
}

// Encrypt produce el token opaco para un ID interno.
func (c *Codec) Encrypt(kind Kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id vacío", ErrEncryptionFailed)
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce random: %v", ErrEncryptionFailed, err)
	}
	ct := c.aead.Seal(nil, nonce, []byte(id), []byte(kind))
	return base64.RawURLEncoding.EncodeToString(append(nonce, ct...)), nil
}

// Decrypt recupera el ID interno de un token opaco.
// Retorna ErrNotDecryptable ante cualquier token inválido.
func (c *Codec) Decrypt(kind Kind, token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrNotDecryptable, err)
	}
	if len(raw) <= nonceSizeGCM {
		return "", fmt.Errorf("%w: token demasiado corto", ErrNotDecryptable)
	}
	nonce, ct := raw[:nonceSizeGCM], raw[nonceSizeGCM:]
	pt, err := c.aead.Open(nil, nonce, ct, []byte(kind))
	if err != nil {
		return "", fmt.Errorf("%w: gcm auth/decrypt", ErrNotDecryptable)
	}
	return string(pt), nil
}

// IsNotDecryptable verifica si el error es ErrNotDecryptable.
func IsNotDecryptable(err error) bool {
	return errors.Is(err, ErrNotDecryptable)
}
