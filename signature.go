package postsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// DeriveSigningKey runs the SigV4 key derivation chain:
//
//	kDate    = HMAC("AWS4" + secretKey, dateStamp)
//	kRegion  = HMAC(kDate, region)
//	kService = HMAC(kRegion, service)
//	kSigning = HMAC(kService, "aws4_request")
func DeriveSigningKey(secretKey string, scope Scope) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(scope.DateStamp))
	kRegion := hmacSHA256(kDate, []byte(scope.Region))
	kService := hmacSHA256(kRegion, []byte(scope.Service))
	kSigning := hmacSHA256(kService, []byte(scopeTerminator))
	return kSigning
}

// SignPolicy returns the lowercase hex HMAC-SHA256 of the base64 policy.
func SignPolicy(signingKey []byte, policyBase64 string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(policyBase64)))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
