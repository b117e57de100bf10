package freight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketMOQ(t *testing.T) {
	cases := []struct {
		in   string
		want Bucket
	}{
		{"100 units", Bucket100},
		{"1 piece", BucketUnder100},
		{"99", BucketUnder100},
		{"1,000 pcs", Bucket1000},
		{"500+", Bucket100},
		{"100-500 pieces", Bucket100},
		{"2k", Bucket1000},
		{"1.5K units", Bucket1000},
		{"25,000 sets", Bucket10000},
		{"MOQ: 12 cartons", BucketUnder100},
		{"", BucketUnknown},
		{"negotiable", BucketUnknown},
		{"0 units", BucketUnknown},
		{"100 kg bags", Bucket100},
		{"-5 units", BucketUnknown},
		{"-100", BucketUnknown},
		{"-1,000 pcs", BucketUnknown},
		{"2.000 pcs", Bucket1000},
		{"1.000,50 units", Bucket1000},
		{"25.000 sets", Bucket10000},
		{"1 000 units", Bucket1000},
		{"12 500 pcs", Bucket10000},
		{"2.5 pcs", BucketUnder100},
		{"1.5000 units", BucketUnder100},
		{"3 pallets", BucketUnder100},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, BucketMOQ(tc.in), "BucketMOQ(%q)", tc.in)
	}
}

func TestParseBucket(t *testing.T) {
	b, ok := ParseBucket(" 100-999 ")
	require.True(t, ok)
	require.Equal(t, Bucket100, b)

	_, ok = ParseBucket("lots")
	require.False(t, ok)
	_, ok = ParseBucket(string(BucketUnknown))
	require.False(t, ok)
}
