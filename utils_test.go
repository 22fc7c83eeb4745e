package akavelink_test

import (
	"strings"
	"testing"

	"github.com/akavelink/akavelink"
	"github.com/stretchr/testify/assert"
)

func TestIsValidBucketName(t *testing.T) {
	valid := []string{"mybucket", "photos-2024", "a", "bucket_1", "データ"}
	for _, name := range valid {
		assert.True(t, akavelink.IsValidBucketName(name), name)
	}

	invalid := []string{
		"",
		"has space",
		"has/slash",
		`has\backslash`,
		"dot..dot",
		"has=equals",
		"has,comma",
		"tab\tname",
		"ctrl\x01name",
		strings.Repeat("x", 256),
	}
	for _, name := range invalid {
		assert.False(t, akavelink.IsValidBucketName(name), "%q", name)
	}
}

func TestIsValidFileName(t *testing.T) {
	assert.True(t, akavelink.IsValidFileName("report.pdf"))
	assert.False(t, akavelink.IsValidFileName("../etc/passwd"))
	assert.False(t, akavelink.IsValidFileName(""))
}
