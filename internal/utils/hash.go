package utils

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

var md5HexPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ComputeMD5 returns the lowercase hex MD5 of data, which is what S3-compatible
// stores report as the ETag of a single uploaded part.
func ComputeMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// IsMD5Hex reports whether etag looks like a plain MD5 digest.
func IsMD5Hex(etag string) bool {
	return md5HexPattern.MatchString(strings.ToLower(etag))
}
