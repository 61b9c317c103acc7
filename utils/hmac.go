package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
)

// EmptyBodyHash is the SHA256 hash of an empty body
const EmptyBodyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// BuildStringToSign constructs the canonical string signed by internal callers.
// Format: METHOD\nPATH\nTIMESTAMP\nUSER_ID\nSHA256(body)
func BuildStringToSign(method, path string, timestamp int64, userID, bodyHash string) string {
	return fmt.Sprintf("%s\n%s\n%d\n%s\n%s", method, path, timestamp, userID, bodyHash)
}

// ComputeHMACSHA256 returns the hex-encoded HMAC-SHA256 of message.
func ComputeHMACSHA256(secretKey, message string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// SignRequest produces the value of an "Authorization: HMAC <timestamp>:<signature>"
// header for a service-to-service call.
func SignRequest(secretKey, method, path string, timestamp int64, userID string, body []byte) string {
	stringToSign := BuildStringToSign(method, path, timestamp, userID, HashBodySHA256(body))
	return "HMAC " + strconv.FormatInt(timestamp, 10) + ":" + ComputeHMACSHA256(secretKey, stringToSign)
}

// SecureCompare performs constant-time string comparison.
// This MUST be used when comparing signatures.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashBodySHA256 returns the hex SHA256 of body, or EmptyBodyHash for an
// empty body.
func HashBodySHA256(body []byte) string {
	if len(body) == 0 {
		return EmptyBodyHash
	}
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// Abs returns the absolute value of x
func Abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
