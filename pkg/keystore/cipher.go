package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	macSize          = sha256.Size
	deviceBoundInfo  = "noteauth/device-bound/v1"
	deviceBoundKeyLn = 32
)

var errAuthentication = errors.New("message authentication failed")

// sealCBC encrypts plaintext with AES-256-CBC and appends an HMAC-SHA256
// over scheme, salt, IV and ciphertext. Output layout: iv || ct || mac.
func sealCBC(encKey, macKey, salt, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded), aes.BlockSize+len(padded)+macSize)
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	return append(out, computeMAC(macKey, salt, out)...), nil
}

// openCBC verifies the MAC before touching the ciphertext.
func openCBC(encKey, macKey, salt, sealed []byte) ([]byte, error) {
	if len(sealed) < aes.BlockSize*2+macSize || (len(sealed)-macSize)%aes.BlockSize != 0 {
		return nil, errAuthentication
	}
	body, tag := sealed[:len(sealed)-macSize], sealed[len(sealed)-macSize:]
	if !hmac.Equal(tag, computeMAC(macKey, salt, body)) {
		return nil, errAuthentication
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	iv, ct := body[:aes.BlockSize], body[aes.BlockSize:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	return pkcs7Unpad(plain, aes.BlockSize)
}

func computeMAC(key, salt, body []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(SchemeIdentityBound))
	m.Write(salt)
	m.Write(body)
	return m.Sum(nil)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errAuthentication
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errAuthentication
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errAuthentication
		}
	}
	return b[:len(b)-n], nil
}

// deviceBoundKey derives the basic-mode key from device material only.
func deviceBoundKey(material, salt []byte) ([]byte, error) {
	key := make([]byte, deviceBoundKeyLn)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, salt, []byte(deviceBoundInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// sealGCM output layout: nonce || ct+tag.
func sealGCM(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(SchemeDeviceBound)), nil
}

func openGCM(key, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errAuthentication
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ct, []byte(SchemeDeviceBound))
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
