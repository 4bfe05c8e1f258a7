package source

import (
    "crypto/aes"
    "crypto/cipher"
    "crypto/rand"
    "crypto/sha256"
    "fmt"
    "io"

    "golang.org/x/crypto/pbkdf2"
)

// Stored-object encryption for S3-hosted sources and results.
// Format: magic(8) + salt(16) + nonce(12) + ciphertext+tag.
const gcmMagic = "GCM3NCR0"

const (
    saltLen       = 16
    nonceLen      = 12
    pbkdf2Iters   = 100000
    pbkdf2KeyLen  = 32
)

func deriveKey(password string, salt []byte) []byte {
    return pbkdf2.Key([]byte(password), salt, pbkdf2Iters, pbkdf2KeyLen, sha256.New)
}

// EncryptGCM encrypts data with a key derived from password.
func EncryptGCM(data []byte, password string) ([]byte, error) {
    salt := make([]byte, saltLen)
    nonce := make([]byte, nonceLen)
    if _, err := io.ReadFull(rand.Reader, salt); err != nil {
        return nil, fmt.Errorf("generate salt: %w", err)
    }
    if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
        return nil, fmt.Errorf("generate nonce: %w", err)
    }

    block, err := aes.NewCipher(deriveKey(password, salt))
    if err != nil { return nil, err }
    gcm, err := cipher.NewGCM(block)
    if err != nil { return nil, err }

    out := make([]byte, 0, len(gcmMagic)+saltLen+nonceLen+len(data)+gcm.Overhead())
    out = append(out, gcmMagic...)
    out = append(out, salt...)
    out = append(out, nonce...)
    out = gcm.Seal(out, nonce, data, nil)
    return out, nil
}

// MaybeDecrypt decrypts GCM-encrypted payloads and passes plaintext data
// through unchanged, so the same read path serves both.
func MaybeDecrypt(data []byte, password string) ([]byte, error) {
    if len(data) < len(gcmMagic) || string(data[:len(gcmMagic)]) != gcmMagic {
        return data, nil
    }
    if len(data) < len(gcmMagic)+saltLen+nonceLen {
        return nil, fmt.Errorf("encrypted payload truncated: %d bytes", len(data))
    }
    salt := data[len(gcmMagic) : len(gcmMagic)+saltLen]
    nonce := data[len(gcmMagic)+saltLen : len(gcmMagic)+saltLen+nonceLen]
    ciphertext := data[len(gcmMagic)+saltLen+nonceLen:]

    block, err := aes.NewCipher(deriveKey(password, salt))
    if err != nil { return nil, err }
    gcm, err := cipher.NewGCM(block)
    if err != nil { return nil, err }

    plain, err := gcm.Open(nil, nonce, ciphertext, nil)
    if err != nil {
        return nil, fmt.Errorf("decrypt stored object: %w", err)
    }
    return plain, nil
}
