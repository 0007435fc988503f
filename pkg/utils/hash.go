package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// DigestSize is the length in hex characters of a content digest
const DigestSize = md5.Size * 2

// Digest computes the content digest used as an equality key for duplicate grouping.
// MD5 is used for speed and its 128-bit width; the digest is never used for security.
func Digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile computes the content digest of a file by streaming it
func DigestFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
