// Package logsource opens engine log files from disk, stdin or S3 and
// transparently decompresses gzip and zstd payloads.
package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stdin is the location that reads from standard input.
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// newS3Client builds the client used for s3:// locations. Tests replace it.
var newS3Client = func() (s3iface.S3API, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return s3.New(sess), nil
}

var stdin io.Reader = os.Stdin

// Open returns a reader over the decompressed content of location.
// The caller must close it.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	raw, err := openRaw(ctx, location)
	if err != nil {
		return nil, err
	}
	rc, err := decompress(raw)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return rc, nil
}

func openRaw(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case location == "" || location == Stdin:
		return io.NopCloser(stdin), nil
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, err
		}
		client, err := newS3Client()
		if err != nil {
			return nil, err
		}
		out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", location, err)
		}
		return out.Body, nil
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open log %s: %w", location, err)
		}
		return f, nil
	}
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}

// decompress sniffs the leading bytes so renamed files still decode.
func decompress(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(raw)
	head, _ := br.Peek(4)
	switch {
	case hasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		return &stacked{Reader: zr, closers: []func() error{zr.Close, raw.Close}}, nil
	case hasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd header: %w", err)
		}
		return &stacked{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, raw.Close}}, nil
	}
	return &stacked{Reader: br, closers: []func() error{raw.Close}}, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

type stacked struct {
	io.Reader
	closers []func() error
}

func (s *stacked) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
