package freight

import (
	"regexp"
	"strconv"
	"strings"
)

// Bucket is an order-of-magnitude band of a minimum order quantity.
type Bucket string

const (
	BucketUnder100 Bucket = "1-99"
	Bucket100      Bucket = "100-999"
	Bucket1000     Bucket = "1000-9999"
	Bucket10000    Bucket = "10000+"
	BucketUnknown  Bucket = "unknown"
)

var (
	moqNumber = regexp.MustCompile(`(-?\d[\d,]*(?:\.\d+)?)\s*([kK]\b)?`)
	// dot or space followed by exact three-digit groups, as in "2.000" or "1 000"
	moqGrouped = regexp.MustCompile(`(-?\d{1,3}(?:[. ]\d{3})+)(?:\s*([kK])\b|[^\d.]|$)`)
)

// BucketMOQ maps free-form MOQ text such as "100 units", "1,000 pcs" or "2k" to a bucket.
// Text without a usable positive number lands in BucketUnknown.
func BucketMOQ(moq string) Bucket {
	n, ok := parseMOQ(moq)
	if !ok {
		return BucketUnknown
	}
	return BucketFor(n)
}

// BucketFor returns the bucket for a numeric quantity.
func BucketFor(n float64) Bucket {
	switch {
	case n < 1:
		return BucketUnknown
	case n < 100:
		return BucketUnder100
	case n < 1000:
		return Bucket100
	case n < 10000:
		return Bucket1000
	default:
		return Bucket10000
	}
}

// ParseBucket accepts a bucket label that a freight rate can be stored under.
func ParseBucket(s string) (Bucket, bool) {
	switch b := Bucket(strings.TrimSpace(s)); b {
	case BucketUnder100, Bucket100, Bucket1000, Bucket10000:
		return b, true
	default:
		return "", false
	}
}

func parseMOQ(moq string) (float64, bool) {
	m := moqNumber.FindStringSubmatchIndex(moq)
	if m == nil {
		return 0, false
	}
	num, suffix := moq[m[2]:m[3]], m[4] >= 0
	if g := moqGrouped.FindStringSubmatchIndex(moq); g != nil && g[2] <= m[2] {
		num = strings.NewReplacer(".", "", " ", "").Replace(moq[g[2]:g[3]])
		suffix = g[4] >= 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	if suffix {
		n *= 1000
	}
	return n, true
}
